package web

import (
	"context"
	"fmt"
	"time"

	"github.com/jpatrickfarrell/jat/internal/activity"
	"github.com/jpatrickfarrell/jat/internal/beads"
	"github.com/jpatrickfarrell/jat/internal/mail"
	"github.com/jpatrickfarrell/jat/internal/session"
	"github.com/jpatrickfarrell/jat/internal/signal"
	"github.com/jpatrickfarrell/jat/internal/state"
	"github.com/jpatrickfarrell/jat/internal/timeline"
	"github.com/jpatrickfarrell/jat/internal/tmux"
)

// maxFetcherCommands limits how many concurrent tmux/bd subprocesses the
// fetcher can spawn. The dashboard handler fires its Fetch* calls in
// parallel on every page load and each can cascade into subprocess calls.
const maxFetcherCommands = 6

// fetcherSem is a package-level counting semaphore shared by all fetcher
// subprocess helpers: send to acquire, receive to release.
var fetcherSem = make(chan struct{}, maxFetcherCommands)

// acquireFetcherSlot blocks until a command slot is available or ctx expires.
func acquireFetcherSlot(ctx context.Context) error {
	select {
	case fetcherSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("fetcher command slot unavailable: %w", ctx.Err())
	}
}

func releaseFetcherSlot() { <-fetcherSem }

// SessionRow is one session as rendered on the dashboard.
type SessionRow struct {
	Name         string            `json:"name"`
	AgentName    string            `json:"agent_name"`
	Kind         session.Kind      `json:"kind"`
	State        state.Activity    `json:"state"`
	StateLabel   string            `json:"state_label"`
	StateColor   string            `json:"state_color"`
	Pulse        bool              `json:"pulse"`
	FromOverride bool              `json:"from_override"`
	Attached     bool              `json:"attached"`
	CreatedAt    string            `json:"created_at,omitempty"`
	Elapsed      *activity.Elapsed `json:"elapsed,omitempty"`
	Age          string            `json:"age,omitempty"`
	AgeColor     string            `json:"age_color,omitempty"`
	TaskID       string            `json:"task_id,omitempty"`
	TaskTitle    string            `json:"task_title,omitempty"`
	Question     string            `json:"question,omitempty"`
}

// Fetcher is the data surface the dashboard handler renders from.
type Fetcher interface {
	FetchSessions() ([]SessionRow, error)
	FetchTimeline(limit int) (timeline.Result, error)
	FetchMail(limit int) ([]mail.Message, error)
}

// LiveFetcher assembles dashboard data from tmux, the signal store, and
// the beads database.
type LiveFetcher struct {
	lister    *session.Lister
	store     *signal.Store
	overrides *state.OverrideStore
	tasks     *beads.Client
	mailbox   *mail.Mailbox

	cmdTimeout time.Duration
}

// NewLiveFetcher creates a fetcher over live data sources.
func NewLiveFetcher(lister *session.Lister, store *signal.Store, overrides *state.OverrideStore, tasks *beads.Client, mailbox *mail.Mailbox, cmdTimeout time.Duration) *LiveFetcher {
	if cmdTimeout <= 0 {
		cmdTimeout = 5 * time.Second
	}
	return &LiveFetcher{
		lister:     lister,
		store:      store,
		overrides:  overrides,
		tasks:      tasks,
		mailbox:    mailbox,
		cmdTimeout: cmdTimeout,
	}
}

// FetchSessions lists tmux sessions and resolves each one's activity
// state from the latest signal and any optimistic override.
func (f *LiveFetcher) FetchSessions() ([]SessionRow, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.cmdTimeout)
	defer cancel()
	if err := acquireFetcherSlot(ctx); err != nil {
		return nil, err
	}
	sessions, err := f.lister.List()
	releaseFetcherSlot()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, f.buildRow(s, now))
	}
	return rows, nil
}

// buildRow resolves the display state for one session.
func (f *LiveFetcher) buildRow(s session.Session, now time.Time) SessionRow {
	in := state.ResolveInput{Alive: true, Attached: s.Attached}

	var sig signal.Signal
	if rec, ok := f.store.Latest(s.Name); ok {
		sig = rec.Signal
		in.SignalType = sig.Type
		in.HasSignal = true
	}
	if ov, ok := f.overrides.Get(s.Name); ok {
		in.Override = ov.State
		in.HasOverride = true
	}

	res := state.Resolve(in)

	row := SessionRow{
		Name:         s.Name,
		AgentName:    s.AgentName(),
		Kind:         s.Kind,
		State:        res.State,
		StateLabel:   res.Meta.Label,
		StateColor:   res.Meta.Color,
		Pulse:        res.Meta.Pulse,
		FromOverride: res.FromOverride,
		Attached:     s.Attached,
		TaskID:       sig.TaskID(),
		TaskTitle:    sig.TaskTitle(),
		Question:     sig.Question(),
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt.UTC().Format(time.RFC3339)
		row.CreatedAt = created
		row.Elapsed = activity.ElapsedSince(created, now)
	}
	if !s.LastActivity.IsZero() {
		info := activity.CalculateAt(s.LastActivity, now)
		row.Age = info.FormattedAge
		row.AgeColor = info.ColorClass
	}
	return row
}

// FetchTimeline merges task, mail, and signal events into one feed.
// A failed source contributes zero events; the others still render.
func (f *LiveFetcher) FetchTimeline(limit int) (timeline.Result, error) {
	var taskSrc, mailSrc timeline.Source

	ctx, cancel := context.WithTimeout(context.Background(), f.cmdTimeout)
	defer cancel()

	if err := acquireFetcherSlot(ctx); err != nil {
		taskSrc = timeline.Errored(timeline.CategoryTask, err)
		mailSrc = timeline.Errored(timeline.CategoryMail, err)
	} else {
		tasks, err := f.tasks.List(beads.ListOptions{Status: "all", Limit: limit})
		if err != nil {
			taskSrc = timeline.Errored(timeline.CategoryTask, err)
		} else {
			taskSrc = timeline.FromTasks(tasks)
		}

		msgs, err := f.mailbox.Fetch(limit)
		if err != nil {
			mailSrc = timeline.Errored(timeline.CategoryMail, err)
		} else {
			mailSrc = timeline.FromMail(msgs)
		}
		releaseFetcherSlot()
	}

	signalSrc := timeline.FromSignals(f.store.All())

	result := timeline.Merge(taskSrc, mailSrc, signalSrc)
	if limit > 0 {
		result.Events = result.Tail(limit)
	}
	return result, nil
}

// FetchMail returns recent messages, newest first.
func (f *LiveFetcher) FetchMail(limit int) ([]mail.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.cmdTimeout)
	defer cancel()
	if err := acquireFetcherSlot(ctx); err != nil {
		return nil, err
	}
	defer releaseFetcherSlot()
	return f.mailbox.Fetch(limit)
}

// SessionOps is the tmux control surface the API exposes.
type SessionOps interface {
	CapturePane(name string, lines int) (string, error)
	SendKeys(name, keys string) error
	SendKeysRaw(name, keys string) error
	ResizePane(name string, cols, rows int) error
	KillSession(name string) error
	HasSession(name string) (bool, error)
}

var _ SessionOps = (*tmux.Tmux)(nil)
