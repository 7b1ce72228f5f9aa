package state

// ResolveInput carries everything the resolver looks at. All fields are
// already-fetched values; Resolve performs no I/O and is safe to call on
// every render tick.
type ResolveInput struct {
	// SignalType is the type string of the latest signal for the session.
	// Ignored when HasSignal is false.
	SignalType string
	HasSignal  bool

	// Override is the optimistic local override state, if one is active.
	Override    Activity
	HasOverride bool

	// Alive reports whether the underlying tmux session still exists.
	// Attached reports whether a human terminal is attached to it.
	Alive    bool
	Attached bool
}

// Resolution is the resolver output: the authoritative display state
// plus its visual metadata.
type Resolution struct {
	State        Activity
	Meta         Meta
	FromOverride bool // true when an optimistic override won
}

// Resolve computes the authoritative display state for a session.
//
// Priority, highest wins:
//  1. An active override, while the latest signal has not yet reached or
//     passed the overridden state in lifecycle order.
//  2. The state implied by the latest signal's type.
//  3. Idle, when no signal was ever received.
func Resolve(in ResolveInput) Resolution {
	signalState := Idle
	if in.HasSignal {
		signalState = FromSignalType(in.SignalType)
	}

	if in.HasOverride {
		satisfied := in.HasSignal && OverrideSatisfied(in.Override, signalState)
		if !satisfied {
			return Resolution{State: in.Override, Meta: MetaFor(in.Override), FromOverride: true}
		}
	}

	return Resolution{State: signalState, Meta: MetaFor(signalState)}
}

// OverrideSatisfied reports whether an authoritative signal state has
// reached or passed an override, meaning the override must be cleared.
//
// A completing override is only satisfied by completed or idle. Another
// completing signal does not clear it. States outside the lifecycle
// order never satisfy an override.
func OverrideSatisfied(override, signalState Activity) bool {
	ovRank, ok := Rank(override)
	if !ok {
		// Overrides in off-lifecycle states (e.g. paused) clear on any
		// on-lifecycle signal.
		_, sigOK := Rank(signalState)
		return sigOK
	}
	sigRank, ok := Rank(signalState)
	if !ok {
		return false
	}

	if override == Completing {
		return signalState == Completed || signalState == Idle
	}
	return sigRank >= ovRank
}
