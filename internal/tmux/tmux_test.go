package tmux

import (
	"errors"
	"os/exec"
	"testing"
	"time"
)

func hasTmux() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

func TestValidateSessionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "jat-dag", false},
		{"underscores", "dev_server_8080", false},
		{"digits", "jat-worker-2", false},
		{"empty", "", true},
		{"dot", "jat.dag", true},
		{"colon", "jat:0", true},
		{"space", "jat dag", true},
		{"shell metachars", "jat;rm", true},
		{"pipe", "jat|x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSessionName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSessionName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSessionName) {
				t.Errorf("error should wrap ErrInvalidSessionName, got %v", err)
			}
		})
	}
}

func TestParseSessionLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Info
		wantOK bool
	}{
		{
			name: "full record",
			line: "jat-dag|1787650000|1|1787651234",
			want: Info{
				Name:      "jat-dag",
				CreatedAt: time.Unix(1787650000, 0),
				Attached:  true,
				Activity:  time.Unix(1787651234, 0),
			},
			wantOK: true,
		},
		{
			name:   "detached",
			line:   "dev-web|1787650000|0|1787650500",
			want:   Info{Name: "dev-web", CreatedAt: time.Unix(1787650000, 0), Activity: time.Unix(1787650500, 0)},
			wantOK: true,
		},
		{
			name:   "name only",
			line:   "jat-solo",
			want:   Info{Name: "jat-solo"},
			wantOK: true,
		},
		{
			name:   "empty line",
			line:   "",
			wantOK: false,
		},
		{
			name:   "missing name",
			line:   "|1787650000|1|1787651234",
			wantOK: false,
		},
		{
			name:   "garbage timestamps ignored",
			line:   "jat-dag|notanumber|maybe|later",
			want:   Info{Name: "jat-dag"},
			wantOK: true,
		},
		{
			name:   "multiple attached clients",
			line:   "jat-dag|1787650000|3|1787651234",
			want:   Info{Name: "jat-dag", CreatedAt: time.Unix(1787650000, 0), Attached: true, Activity: time.Unix(1787651234, 0)},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSessionLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseSessionLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Name != tt.want.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.want.Name)
			}
			if !got.CreatedAt.Equal(tt.want.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, tt.want.CreatedAt)
			}
			if got.Attached != tt.want.Attached {
				t.Errorf("Attached = %v, want %v", got.Attached, tt.want.Attached)
			}
			if !got.Activity.Equal(tt.want.Activity) {
				t.Errorf("Activity = %v, want %v", got.Activity, tt.want.Activity)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	tm := New()
	base := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"no server", "no server running on /tmp/tmux-1000/default", ErrNoServer},
		{"connect failure", "error connecting to /tmp/tmux-1000/default (No such file or directory)", ErrNoServer},
		{"server exited", "server exited unexpectedly", ErrNoServer},
		{"session not found", "session not found: jat-dag", ErrSessionNotFound},
		{"cant find session", "can't find session: jat-dag", ErrSessionNotFound},
		{"cant find pane", "can't find pane: jat-dag", ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tm.wrapError(base, tt.stderr, []string{"list-sessions"})
			if !errors.Is(err, tt.want) {
				t.Errorf("wrapError(%q) = %v, want %v", tt.stderr, err, tt.want)
			}
		})
	}

	t.Run("unknown stderr preserved", func(t *testing.T) {
		err := tm.wrapError(base, "protocol version mismatch", []string{"list-sessions"})
		if errors.Is(err, ErrNoServer) || errors.Is(err, ErrSessionNotFound) {
			t.Errorf("unexpected sentinel for unknown stderr: %v", err)
		}
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestSessionSet(t *testing.T) {
	set := NewSessionSet([]string{"jat-dag", "dev-web"})

	if !set.Has("jat-dag") {
		t.Error("expected jat-dag in set")
	}
	if !set.Has("dev-web") {
		t.Error("expected dev-web in set")
	}
	if set.Has("jat-gone") {
		t.Error("jat-gone should not be in set")
	}

	var nilSet *SessionSet
	if nilSet.Has("anything") {
		t.Error("nil set should report false")
	}
}

func TestInvalidNamesRejectedBeforeSubprocess(t *testing.T) {
	// These must fail validation without ever invoking tmux, so they
	// are safe to run on machines without tmux installed.
	tm := New()

	if _, err := tm.HasSession("bad;name"); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("HasSession: got %v, want ErrInvalidSessionName", err)
	}
	if _, err := tm.CapturePane("bad name", 100); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("CapturePane: got %v, want ErrInvalidSessionName", err)
	}
	if err := tm.SendKeys("bad:name", "hello"); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("SendKeys: got %v, want ErrInvalidSessionName", err)
	}
	if err := tm.KillSession("bad.name"); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("KillSession: got %v, want ErrInvalidSessionName", err)
	}
	if err := tm.ResizePane("bad|name", 80, 24); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("ResizePane: got %v, want ErrInvalidSessionName", err)
	}
}

func TestResizePaneRejectsNonPositiveSize(t *testing.T) {
	tm := New()
	if err := tm.ResizePane("jat-dag", 0, 24); err == nil {
		t.Error("expected error for zero columns")
	}
	if err := tm.ResizePane("jat-dag", 80, -1); err == nil {
		t.Error("expected error for negative rows")
	}
}

func TestListSessionsNoServer(t *testing.T) {
	if !hasTmux() {
		t.Skip("tmux not installed")
	}

	tm := New()
	if _, err := tm.ListSessions(); err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
}

func TestHasSessionMissing(t *testing.T) {
	if !hasTmux() {
		t.Skip("tmux not installed")
	}

	tm := New()
	has, err := tm.HasSession("jat-definitely-not-here")
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if has {
		t.Error("expected session to not exist")
	}
}

func TestKillSessionMissingIsNoop(t *testing.T) {
	if !hasTmux() {
		t.Skip("tmux not installed")
	}

	tm := New()
	if err := tm.KillSession("jat-definitely-not-here"); err != nil {
		t.Errorf("KillSession on missing session: %v", err)
	}
}
