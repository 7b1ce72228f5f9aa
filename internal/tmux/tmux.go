// Package tmux wraps the tmux operations the dashboard needs: listing
// sessions, capturing pane output, sending keys, resizing panes, and
// killing sessions. Sessions are created by external agent tooling;
// this package only observes and issues termination requests.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNoServer           = errors.New("no tmux server running")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSessionName = errors.New("invalid session name")
)

// validSessionNameRe validates session names to prevent shell injection
var validSessionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateSessionName checks that a session name contains only safe
// characters. Dots and colons are rejected because tmux treats them as
// target syntax and fails in cryptic ways.
func validateSessionName(name string) error {
	if name == "" || !validSessionNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidSessionName, name, validSessionNameRe.String())
	}
	return nil
}

// Info describes one tmux session as reported by list-sessions.
type Info struct {
	Name      string
	CreatedAt time.Time
	Attached  bool
	Activity  time.Time
}

// Tmux wraps tmux operations.
type Tmux struct{}

// New creates a new Tmux wrapper.
func New() *Tmux {
	return &Tmux{}
}

// run executes a tmux command and returns trimmed stdout.
// The -u flag forces UTF-8 mode regardless of locale.
func (t *Tmux) run(args ...string) (string, error) {
	allArgs := append([]string{"-u"}, args...)
	cmd := exec.Command("tmux", allArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", t.wrapError(err, stderr.String(), args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// wrapError maps tmux stderr text to sentinel errors.
func (t *Tmux) wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") ||
		strings.Contains(stderr, "server exited unexpectedly") {
		return ErrNoServer
	}
	if strings.Contains(stderr, "session not found") ||
		strings.Contains(stderr, "can't find session") ||
		strings.Contains(stderr, "can't find pane") {
		return ErrSessionNotFound
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// IsAvailable reports whether the tmux binary can be executed.
func (t *Tmux) IsAvailable() bool {
	return exec.Command("tmux", "-V").Run() == nil
}

// HasSession checks if a session exists. The "=" prefix forces exact
// matching so "jat-dag" does not match a check for "jat-da".
func (t *Tmux) HasSession(name string) (bool, error) {
	if err := validateSessionName(name); err != nil {
		return false, err
	}
	_, err := t.run("has-session", "-t", "="+name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// listFormat is the line format for ListSessions. Fields are pipe
// separated; session names cannot contain pipes (see validateSessionName).
const listFormat = "#{session_name}|#{session_created}|#{session_attached}|#{session_activity}"

// ListSessions returns all sessions with creation, attachment, and
// activity metadata. No server means no sessions, not an error.
// Malformed lines (missing name) are filtered out.
func (t *Tmux) ListSessions() ([]Info, error) {
	out, err := t.run("list-sessions", "-F", listFormat)
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var infos []Info
	for _, line := range strings.Split(out, "\n") {
		if info, ok := parseSessionLine(line); ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// parseSessionLine parses one "name|created|attached|activity" line.
// ok is false for lines without a session name.
func parseSessionLine(line string) (Info, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Info{}, false
	}

	parts := strings.Split(line, "|")
	if parts[0] == "" {
		return Info{}, false
	}
	info := Info{Name: parts[0]}

	if len(parts) > 1 {
		if unix, err := strconv.ParseInt(parts[1], 10, 64); err == nil && unix > 0 {
			info.CreatedAt = time.Unix(unix, 0)
		}
	}
	if len(parts) > 2 {
		// session_attached is the number of attached clients.
		if n, err := strconv.Atoi(parts[2]); err == nil {
			info.Attached = n > 0
		}
	}
	if len(parts) > 3 {
		if unix, err := strconv.ParseInt(parts[3], 10, 64); err == nil && unix > 0 {
			info.Activity = time.Unix(unix, 0)
		}
	}
	return info, true
}

// GetSessionInfo returns metadata for a single session.
func (t *Tmux) GetSessionInfo(name string) (*Info, error) {
	if err := validateSessionName(name); err != nil {
		return nil, err
	}
	out, err := t.run("display-message", "-t", "="+name, "-p", listFormat)
	if err != nil {
		return nil, err
	}
	info, ok := parseSessionLine(out)
	if !ok {
		return nil, fmt.Errorf("unexpected display-message output %q", out)
	}
	return &info, nil
}

// GetSessionCreatedUnix returns the session creation time as unix seconds.
func (t *Tmux) GetSessionCreatedUnix(name string) (int64, error) {
	if err := validateSessionName(name); err != nil {
		return 0, err
	}
	out, err := t.run("display-message", "-t", "="+name, "-p", "#{session_created}")
	if err != nil {
		return 0, err
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing session_created %q: %w", out, err)
	}
	return ts, nil
}

// IsSessionAttached reports whether any client is attached to the session.
func (t *Tmux) IsSessionAttached(name string) bool {
	out, err := t.run("display-message", "-t", "="+name, "-p", "#{session_attached}")
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	return err == nil && n > 0
}

// CapturePane captures the last lines of a session's visible pane,
// joining wrapped lines.
func (t *Tmux) CapturePane(name string, lines int) (string, error) {
	if err := validateSessionName(name); err != nil {
		return "", err
	}
	return t.run("capture-pane", "-p", "-J", "-t", "="+name, "-S", fmt.Sprintf("-%d", lines))
}

// CapturePaneLines captures the last N pane lines as a slice.
func (t *Tmux) CapturePaneLines(name string, lines int) ([]string, error) {
	out, err := t.CapturePane(name, lines)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// SendKeys sends literal text to a session followed by Enter. Enter is
// sent as a separate command so paste and submit cannot interleave.
func (t *Tmux) SendKeys(name, keys string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	if _, err := t.run("send-keys", "-t", "="+name, "-l", keys); err != nil {
		return err
	}
	_, err := t.run("send-keys", "-t", "="+name, "Enter")
	return err
}

// SendKeysRaw sends key names (e.g. "C-c", "Escape") without the literal
// flag and without a trailing Enter.
func (t *Tmux) SendKeysRaw(name, keys string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	_, err := t.run("send-keys", "-t", "="+name, keys)
	return err
}

// ResizePane resizes a session's window to the given columns and rows so
// captured output matches the dashboard terminal view.
func (t *Tmux) ResizePane(name string, cols, rows int) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid pane size %dx%d", cols, rows)
	}
	_, err := t.run("resize-window", "-t", "="+name,
		"-x", strconv.Itoa(cols), "-y", strconv.Itoa(rows))
	return err
}

// KillSession terminates a tmux session. Killing an already-gone session
// is not an error.
func (t *Tmux) KillSession(name string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	_, err := t.run("kill-session", "-t", "="+name)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
		return nil
	}
	return err
}

// SessionSet provides O(1) existence checks over one list-sessions call,
// avoiding an N+1 subprocess spawn when checking many sessions.
type SessionSet struct {
	sessions map[string]struct{}
}

// NewSessionSet builds a set from known names.
func NewSessionSet(names []string) *SessionSet {
	set := &SessionSet{sessions: make(map[string]struct{}, len(names))}
	for _, name := range names {
		set.sessions[name] = struct{}{}
	}
	return set
}

// GetSessionSet snapshots the current sessions into a set.
func (t *Tmux) GetSessionSet() (*SessionSet, error) {
	infos, err := t.ListSessions()
	if err != nil {
		return nil, err
	}
	set := &SessionSet{sessions: make(map[string]struct{}, len(infos))}
	for _, info := range infos {
		set.sessions[info.Name] = struct{}{}
	}
	return set, nil
}

// Has returns true if the session exists in the set.
func (s *SessionSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.sessions[name]
	return ok
}
