package mail

import (
	"errors"
	"testing"
	"time"

	"github.com/jpatrickfarrell/jat/internal/beads"
)

type fakeClient struct {
	tasks []*beads.Task
	err   error
	opts  beads.ListOptions
}

func (f *fakeClient) List(opts beads.ListOptions) ([]*beads.Task, error) {
	f.opts = opts
	return f.tasks, f.err
}

func TestFetchSortsNewestFirst(t *testing.T) {
	client := &fakeClient{tasks: []*beads.Task{
		{ID: "jat-m1", Title: "older", Status: "closed", Priority: 2, CreatedBy: "jat-ava", Assignee: "jat-dag", CreatedAt: "2026-08-25T10:00:00Z"},
		{ID: "jat-m2", Title: "newer", Status: "open", Priority: 0, CreatedBy: "jat-dag", Assignee: "jat-ava", CreatedAt: "2026-08-26T10:00:00Z"},
	}}

	msgs, err := NewMailbox(client).Fetch(10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "jat-m2" {
		t.Errorf("newest first: got %q", msgs[0].ID)
	}
	if msgs[0].Read {
		t.Error("open message should be unread")
	}
	if !msgs[1].Read {
		t.Error("closed message should be read")
	}
	if msgs[0].Priority != "urgent" || msgs[1].Priority != "normal" {
		t.Errorf("priorities = %q, %q", msgs[0].Priority, msgs[1].Priority)
	}
	if msgs[0].From != "jat-dag" || msgs[0].To != "jat-ava" {
		t.Errorf("addresses = %q -> %q", msgs[0].From, msgs[0].To)
	}

	if client.opts.Label != MessageLabel {
		t.Errorf("list label = %q, want %q", client.opts.Label, MessageLabel)
	}
}

func TestFetchDefaultsLimit(t *testing.T) {
	client := &fakeClient{}
	if _, err := NewMailbox(client).Fetch(0); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if client.opts.Limit != 50 {
		t.Errorf("limit = %d, want 50", client.opts.Limit)
	}
}

func TestFetchPropagatesError(t *testing.T) {
	client := &fakeClient{err: beads.ErrNotInstalled}
	if _, err := NewMailbox(client).Fetch(10); !errors.Is(err, beads.ErrNotInstalled) {
		t.Errorf("got %v, want ErrNotInstalled", err)
	}
}

func TestFromTaskBadTimestamp(t *testing.T) {
	msg := fromTask(&beads.Task{ID: "jat-m3", CreatedAt: "yesterday-ish"})
	if !msg.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero", msg.Timestamp)
	}
}

func TestUnread(t *testing.T) {
	client := &fakeClient{tasks: []*beads.Task{
		{ID: "jat-m1", Status: "open", CreatedAt: time.Now().Format(time.RFC3339)},
		{ID: "jat-m2", Status: "open", CreatedAt: time.Now().Format(time.RFC3339)},
	}}
	n, err := NewMailbox(client).Unread()
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if n != 2 {
		t.Errorf("Unread = %d, want 2", n)
	}
	if client.opts.Status != "open" {
		t.Errorf("status filter = %q, want open", client.opts.Status)
	}
}
