// Package session models the tmux sessions shown on the dashboard and
// classifies them by naming convention.
package session

import (
	"sort"
	"strings"
	"time"

	"github.com/jpatrickfarrell/jat/internal/tmux"
)

// Kind classifies a session by what runs inside it.
type Kind string

const (
	KindAgent  Kind = "agent"  // AI coding agent, jat- prefix
	KindServer Kind = "server" // dev server, dev- prefix
	KindIDE    Kind = "ide"    // editor session, ide- prefix
	KindOther  Kind = "other"  // anything else on the tmux server
)

// Name prefixes recognized by Classify.
const (
	AgentPrefix  = "jat-"
	ServerPrefix = "dev-"
	IDEPrefix    = "ide-"
)

// Session is one tmux session as presented by the dashboard.
type Session struct {
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	CreatedAt    time.Time `json:"created_at"`
	Attached     bool      `json:"attached"`
	LastActivity time.Time `json:"last_activity"`
}

// AgentName returns the session name with its kind prefix stripped, for
// display. "jat-dag" becomes "dag"; KindOther names pass through as-is.
func (s Session) AgentName() string {
	switch s.Kind {
	case KindAgent:
		return strings.TrimPrefix(s.Name, AgentPrefix)
	case KindServer:
		return strings.TrimPrefix(s.Name, ServerPrefix)
	case KindIDE:
		return strings.TrimPrefix(s.Name, IDEPrefix)
	}
	return s.Name
}

// Classify determines the session kind from its name prefix.
func Classify(name string) Kind {
	switch {
	case strings.HasPrefix(name, AgentPrefix):
		return KindAgent
	case strings.HasPrefix(name, ServerPrefix):
		return KindServer
	case strings.HasPrefix(name, IDEPrefix):
		return KindIDE
	default:
		return KindOther
	}
}

// FromInfo converts a tmux listing record into a Session.
func FromInfo(info tmux.Info) Session {
	return Session{
		Name:         info.Name,
		Kind:         Classify(info.Name),
		CreatedAt:    info.CreatedAt,
		Attached:     info.Attached,
		LastActivity: info.Activity,
	}
}

// kindOrder puts agents first on the dashboard, then servers, then the rest.
var kindOrder = map[Kind]int{
	KindAgent:  0,
	KindServer: 1,
	KindIDE:    2,
	KindOther:  3,
}

// FromInfos converts a tmux listing into Sessions, sorted by kind then
// name. Prefix-only names like "jat-" carry no agent name and are dropped.
func FromInfos(infos []tmux.Info) []Session {
	sessions := make([]Session, 0, len(infos))
	for _, info := range infos {
		s := FromInfo(info)
		if s.Kind != KindOther && s.AgentName() == "" {
			continue
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Kind != sessions[j].Kind {
			return kindOrder[sessions[i].Kind] < kindOrder[sessions[j].Kind]
		}
		return sessions[i].Name < sessions[j].Name
	})
	return sessions
}

// Lister lists dashboard sessions from a live tmux server.
type Lister struct {
	tmux *tmux.Tmux
}

// NewLister creates a Lister backed by the given tmux wrapper.
func NewLister(t *tmux.Tmux) *Lister {
	return &Lister{tmux: t}
}

// List returns all current sessions. A missing tmux server yields an
// empty list, matching the tmux package's behavior.
func (l *Lister) List() ([]Session, error) {
	infos, err := l.tmux.ListSessions()
	if err != nil {
		return nil, err
	}
	return FromInfos(infos), nil
}

// Agents returns only agent-kind sessions.
func (l *Lister) Agents() ([]Session, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	var agents []Session
	for _, s := range all {
		if s.Kind == KindAgent {
			agents = append(agents, s)
		}
	}
	return agents, nil
}
