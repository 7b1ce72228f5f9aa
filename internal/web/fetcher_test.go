package web

import (
	"testing"
	"time"

	"github.com/jpatrickfarrell/jat/internal/session"
	"github.com/jpatrickfarrell/jat/internal/signal"
	"github.com/jpatrickfarrell/jat/internal/state"
)

func newFetcherFixture() (*LiveFetcher, *signal.Store, *state.OverrideStore) {
	store := signal.NewStore()
	overrides := state.NewOverrideStore()
	f := NewLiveFetcher(nil, store, overrides, nil, nil, time.Second)
	return f, store, overrides
}

func TestBuildRowNoSignalIsIdle(t *testing.T) {
	f, _, _ := newFetcherFixture()
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	row := f.buildRow(session.Session{
		Name:      "jat-dag",
		Kind:      session.KindAgent,
		CreatedAt: now.Add(-90 * time.Second),
	}, now)

	if row.State != state.Idle {
		t.Errorf("state = %q, want idle", row.State)
	}
	if row.AgentName != "dag" {
		t.Errorf("agent name = %q", row.AgentName)
	}
	if row.Elapsed == nil || row.Elapsed.Minutes != "01" || row.Elapsed.Seconds != "30" {
		t.Errorf("elapsed = %+v", row.Elapsed)
	}
	if row.Elapsed.ShowHours {
		t.Error("ShowHours should be false under an hour")
	}
}

func TestBuildRowUsesLatestSignal(t *testing.T) {
	f, store, _ := newFetcherFixture()
	now := time.Now()

	_, err := store.Ingest(signal.Signal{
		Session:   "jat-dag",
		Type:      "needs_input",
		Timestamp: now.Format(time.RFC3339),
		Data:      map[string]interface{}{"question": "Which port?"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	row := f.buildRow(session.Session{Name: "jat-dag", Kind: session.KindAgent}, now)
	if row.State != state.NeedsInput {
		t.Errorf("state = %q, want needs-input", row.State)
	}
	if row.Question != "Which port?" {
		t.Errorf("question = %q", row.Question)
	}
	if row.FromOverride {
		t.Error("state should come from the signal, not an override")
	}
}

func TestBuildRowOverrideWins(t *testing.T) {
	f, store, overrides := newFetcherFixture()
	now := time.Now()

	_, _ = store.Ingest(signal.Signal{Session: "jat-dag", Type: "working", Timestamp: now.Format(time.RFC3339)})
	overrides.Set("jat-dag", state.Completing)

	row := f.buildRow(session.Session{Name: "jat-dag", Kind: session.KindAgent}, now)
	if row.State != state.Completing {
		t.Errorf("state = %q, want completing", row.State)
	}
	if !row.FromOverride {
		t.Error("FromOverride should be set")
	}
}

func TestBuildRowUnknownSignalTypeIsIdle(t *testing.T) {
	f, store, _ := newFetcherFixture()
	now := time.Now()

	_, _ = store.Ingest(signal.Signal{Session: "jat-dag", Type: "quantum_leap", Timestamp: now.Format(time.RFC3339)})

	row := f.buildRow(session.Session{Name: "jat-dag", Kind: session.KindAgent}, now)
	if row.State != state.Idle {
		t.Errorf("state = %q, want idle for unknown signal type", row.State)
	}
	if row.StateLabel == "" || row.StateColor == "" {
		t.Errorf("meta should fall back to a known state, got %+v", row)
	}
}
