// Package signal ingests and stores the lifecycle signals that agent
// processes emit. The store keeps only the latest signal per session;
// history is reconstructed for the timeline from the journal.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors.
var (
	ErrNoSession   = errors.New("signal missing session name")
	ErrNoType      = errors.New("signal missing type")
	ErrNoTimestamp = errors.New("signal missing or unparseable timestamp")
)

// Signal is one immutable, timestamped message emitted by an agent
// process. Type maps onto a display state; Data carries a type-specific
// payload (task id and title, question text and options, completion
// summary).
type Signal struct {
	ID        string                 `json:"id,omitempty"`
	Session   string                 `json:"session"`
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`

	// ReceivedAt is set by the store when the signal is accepted.
	ReceivedAt time.Time `json:"-"`
}

// Time parses the emission timestamp. ok is false when the timestamp is
// absent or unparseable.
func (s *Signal) Time() (time.Time, bool) {
	if s.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Validate checks the boundary contract: session and type must be
// present and the timestamp parseable. Unknown type values are accepted;
// the resolver maps them to idle.
func (s *Signal) Validate() error {
	if s.Session == "" {
		return ErrNoSession
	}
	if s.Type == "" {
		return ErrNoType
	}
	if _, ok := s.Time(); !ok {
		return fmt.Errorf("%w: %q", ErrNoTimestamp, s.Timestamp)
	}
	return nil
}

// Typed payload accessors. All return the zero value when the field is
// absent or has an unexpected shape.

func (s *Signal) dataString(key string) string {
	if s.Data == nil {
		return ""
	}
	v, _ := s.Data[key].(string)
	return v
}

// TaskID returns the task the signal refers to, if any.
func (s *Signal) TaskID() string { return s.dataString("task_id") }

// TaskTitle returns the task title carried by the signal, if any.
func (s *Signal) TaskTitle() string { return s.dataString("task_title") }

// Question returns the question text of a needs_input signal.
func (s *Signal) Question() string { return s.dataString("question") }

// Summary returns the summary text of a completed signal.
func (s *Signal) Summary() string { return s.dataString("summary") }

// Options returns the answer options of a needs_input signal.
func (s *Signal) Options() []string {
	if s.Data == nil {
		return nil
	}
	raw, ok := s.Data["options"].([]interface{})
	if !ok {
		return nil
	}
	opts := make([]string, 0, len(raw))
	for _, o := range raw {
		if str, ok := o.(string); ok {
			opts = append(opts, str)
		}
	}
	return opts
}

// ParseLine decodes one JSON signal line as appended to the signal file
// by agent hooks. Returns nil for blank or non-JSON lines.
func ParseLine(line string) *Signal {
	if len(line) == 0 {
		return nil
	}
	var sig Signal
	if err := json.Unmarshal([]byte(line), &sig); err != nil {
		return nil
	}
	return &sig
}

// newID returns a fresh signal ID.
func newID() string {
	return uuid.NewString()
}
