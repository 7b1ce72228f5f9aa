// Package state derives the single authoritative display state for an
// agent session from its latest signal, connection status, and any
// optimistic local override.
package state

// Activity is the display state of an agent session. Exactly one value
// holds per session at any time. It is advisory and derived fresh on
// every read; the source of truth is the latest emitted signal.
type Activity string

const (
	Starting       Activity = "starting"
	Working        Activity = "working"
	Compacting     Activity = "compacting"
	NeedsInput     Activity = "needs-input"
	ReadyForReview Activity = "ready-for-review"
	Completing     Activity = "completing"
	Completed      Activity = "completed"
	AutoProceeding Activity = "auto-proceeding"
	Recovering     Activity = "recovering"
	Paused         Activity = "paused"
	Idle           Activity = "idle"
)

// lifecycleRank orders states along the canonical lifecycle
// starting → working → {needs-input | ready-for-review} → completing →
// completed → idle. States outside the main line (compacting, paused,
// recovering, auto-proceeding) have no rank: they neither satisfy nor
// dismiss an optimistic override.
var lifecycleRank = map[Activity]int{
	Starting:       0,
	Working:        1,
	NeedsInput:     2,
	ReadyForReview: 2,
	Completing:     3,
	Completed:      4,
	Idle:           5,
}

// Rank returns the lifecycle position of a state. ok is false for states
// outside the canonical lifecycle order.
func Rank(a Activity) (int, bool) {
	r, ok := lifecycleRank[a]
	return r, ok
}

// signalStates maps agent signal types to display states.
var signalStates = map[string]Activity{
	"starting":     Starting,
	"working":      Working,
	"compacting":   Compacting,
	"needs_input":  NeedsInput,
	"review":       ReadyForReview,
	"completing":   Completing,
	"completed":    Completed,
	"auto_proceed": AutoProceeding,
	"recovering":   Recovering,
	"paused":       Paused,
	"idle":         Idle,
}

// FromSignalType maps a signal type string to its display state.
// Unknown types map to Idle so a bad signal can never break rendering.
func FromSignalType(signalType string) Activity {
	if a, ok := signalStates[signalType]; ok {
		return a
	}
	return Idle
}

// KnownSignalType reports whether a signal type is in the enumeration.
func KnownSignalType(signalType string) bool {
	_, ok := signalStates[signalType]
	return ok
}

// Meta is the static visual metadata for a display state.
type Meta struct {
	Label string // short badge text
	Color string // color token consumed by the dashboard CSS
	Pulse bool   // whether the badge should animate
}

var stateMeta = map[Activity]Meta{
	Starting:       {Label: "Starting", Color: "blue", Pulse: true},
	Working:        {Label: "Working", Color: "green", Pulse: true},
	Compacting:     {Label: "Compacting", Color: "purple", Pulse: true},
	NeedsInput:     {Label: "Needs Input", Color: "amber", Pulse: true},
	ReadyForReview: {Label: "Ready for Review", Color: "cyan", Pulse: false},
	Completing:     {Label: "Completing", Color: "green", Pulse: true},
	Completed:      {Label: "Completed", Color: "gray", Pulse: false},
	AutoProceeding: {Label: "Auto-Proceeding", Color: "green", Pulse: true},
	Recovering:     {Label: "Recovering", Color: "amber", Pulse: true},
	Paused:         {Label: "Paused", Color: "gray", Pulse: false},
	Idle:           {Label: "Idle", Color: "gray", Pulse: false},
}

// MetaFor returns the visual metadata for a state. Unrecognized states
// fall back to Idle's metadata so the UI never renders an undefined badge.
func MetaFor(a Activity) Meta {
	if m, ok := stateMeta[a]; ok {
		return m
	}
	return stateMeta[Idle]
}
