package state

import "testing"

func TestResolveNoSignalNoOverride(t *testing.T) {
	got := Resolve(ResolveInput{Alive: true})
	if got.State != Idle {
		t.Errorf("Resolve with no inputs = %q, want %q", got.State, Idle)
	}
	if got.FromOverride {
		t.Error("FromOverride should be false with no override")
	}
}

func TestResolveSignalMapping(t *testing.T) {
	tests := []struct {
		signalType string
		want       Activity
	}{
		{"starting", Starting},
		{"working", Working},
		{"compacting", Compacting},
		{"needs_input", NeedsInput},
		{"review", ReadyForReview},
		{"completing", Completing},
		{"completed", Completed},
		{"auto_proceed", AutoProceeding},
		{"recovering", Recovering},
		{"paused", Paused},
		{"idle", Idle},
		{"bogus_type", Idle},
		{"", Idle},
	}

	for _, tt := range tests {
		t.Run(tt.signalType, func(t *testing.T) {
			got := Resolve(ResolveInput{SignalType: tt.signalType, HasSignal: true, Alive: true})
			if got.State != tt.want {
				t.Errorf("Resolve(signal %q) = %q, want %q", tt.signalType, got.State, tt.want)
			}
		})
	}
}

func TestResolveOutputAlwaysKnownState(t *testing.T) {
	// Unknown signal types must never produce a state outside the enum.
	for _, sig := range []string{"", "???", "WORKING", "done", "finished"} {
		got := Resolve(ResolveInput{SignalType: sig, HasSignal: true})
		if _, ok := stateMeta[got.State]; !ok {
			t.Errorf("Resolve(signal %q) produced unknown state %q", sig, got.State)
		}
	}
}

func TestResolveOverridePriority(t *testing.T) {
	tests := []struct {
		name       string
		override   Activity
		signalType string
		hasSignal  bool
		want       Activity
		fromOv     bool
	}{
		{
			name:     "override wins with no signal",
			override: Completing,
			want:     Completing,
			fromOv:   true,
		},
		{
			name:       "override wins over earlier signal state",
			override:   Completing,
			signalType: "working",
			hasSignal:  true,
			want:       Completing,
			fromOv:     true,
		},
		{
			name:       "completing override survives completing signal",
			override:   Completing,
			signalType: "completing",
			hasSignal:  true,
			want:       Completing,
			fromOv:     true,
		},
		{
			name:       "completing override yields to completed",
			override:   Completing,
			signalType: "completed",
			hasSignal:  true,
			want:       Completed,
		},
		{
			name:       "completing override yields to idle",
			override:   Completing,
			signalType: "idle",
			hasSignal:  true,
			want:       Idle,
		},
		{
			name:       "working override yields to matching signal",
			override:   Working,
			signalType: "working",
			hasSignal:  true,
			want:       Working,
		},
		{
			name:       "working override yields to later signal",
			override:   Working,
			signalType: "review",
			hasSignal:  true,
			want:       ReadyForReview,
		},
		{
			name:       "off-lifecycle signal never dismisses override",
			override:   Completing,
			signalType: "compacting",
			hasSignal:  true,
			want:       Completing,
			fromOv:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(ResolveInput{
				SignalType:  tt.signalType,
				HasSignal:   tt.hasSignal,
				Override:    tt.override,
				HasOverride: true,
				Alive:       true,
			})
			if got.State != tt.want {
				t.Errorf("Resolve = %q, want %q", got.State, tt.want)
			}
			if got.FromOverride != tt.fromOv {
				t.Errorf("FromOverride = %v, want %v", got.FromOverride, tt.fromOv)
			}
		})
	}
}

func TestOverrideSatisfied(t *testing.T) {
	tests := []struct {
		name     string
		override Activity
		signal   Activity
		want     bool
	}{
		{"earlier signal does not satisfy", Completing, Working, false},
		{"equal non-completing satisfies", Working, Working, true},
		{"later signal satisfies", Working, Completed, true},
		{"completing needs completed", Completing, Completing, false},
		{"completing satisfied by completed", Completing, Completed, true},
		{"completing satisfied by idle", Completing, Idle, true},
		{"off-lifecycle signal never satisfies", Working, Paused, false},
		{"off-lifecycle override cleared by lifecycle signal", Paused, Working, true},
		{"off-lifecycle override kept by off-lifecycle signal", Paused, Compacting, false},
		{"needs-input tie with review satisfies", NeedsInput, ReadyForReview, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverrideSatisfied(tt.override, tt.signal); got != tt.want {
				t.Errorf("OverrideSatisfied(%q, %q) = %v, want %v", tt.override, tt.signal, got, tt.want)
			}
		})
	}
}

func TestMetaForFallback(t *testing.T) {
	if MetaFor(Activity("nonsense")) != stateMeta[Idle] {
		t.Error("unknown state should fall back to idle metadata")
	}
	for a, want := range stateMeta {
		if MetaFor(a) != want {
			t.Errorf("MetaFor(%q) mismatch", a)
		}
	}
}

// Complete & Kill flow: override set immediately, intermediate completing
// signal arrives, final completed signal clears the override.
func TestCompleteAndKillScenario(t *testing.T) {
	overrides := NewOverrideStore()
	session := "jat-furiosa"

	overrides.Set(session, Completing)

	// Intermediate completing signal: override persists.
	if cleared := overrides.Observe(session, FromSignalType("completing")); cleared {
		t.Fatal("completing signal must not clear a completing override")
	}
	o, ok := overrides.Get(session)
	if !ok || o.State != Completing {
		t.Fatalf("override lost after intermediate signal: %+v ok=%v", o, ok)
	}
	res := Resolve(ResolveInput{SignalType: "completing", HasSignal: true, Override: o.State, HasOverride: true})
	if res.State != Completing || !res.FromOverride {
		t.Fatalf("mid-flow resolution = %+v, want completing from override", res)
	}

	// Final completed signal clears the override.
	if cleared := overrides.Observe(session, FromSignalType("completed")); !cleared {
		t.Fatal("completed signal should clear the completing override")
	}
	if _, ok := overrides.Get(session); ok {
		t.Fatal("override still present after clear")
	}
	res = Resolve(ResolveInput{SignalType: "completed", HasSignal: true})
	if res.State != Completed {
		t.Fatalf("post-clear resolution = %q, want %q", res.State, Completed)
	}
}

func TestReviewThenCompletedScenario(t *testing.T) {
	// Signal review, then completed: resolver transitions without overrides.
	res := Resolve(ResolveInput{SignalType: "review", HasSignal: true, Alive: true})
	if res.State != ReadyForReview {
		t.Fatalf("after review signal: %q, want %q", res.State, ReadyForReview)
	}
	res = Resolve(ResolveInput{SignalType: "completed", HasSignal: true, Alive: true})
	if res.State != Completed {
		t.Fatalf("after completed signal: %q, want %q", res.State, Completed)
	}
}

// A session created recently with no signal resolves to idle, not starting.
func TestFreshSessionWithoutSignalsIsIdle(t *testing.T) {
	res := Resolve(ResolveInput{Alive: true, Attached: false})
	if res.State != Idle {
		t.Errorf("fresh session with no signals = %q, want %q", res.State, Idle)
	}
}
