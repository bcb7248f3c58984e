package hw

import "sync"

// MemRelay is an in-memory relay used by the simulator build and the tests.
// It tracks the logic level the pin would carry and invokes an optional
// hook on every effective transition.
type MemRelay struct {
	mu         sync.Mutex
	activeHigh bool
	energized  bool

	// OnChange, when set, fires after each transition with the new
	// energized state. Used to couple the simulated probe to the pump.
	OnChange func(on bool)
}

// NewMemRelay returns a de-energized relay with the given polarity.
func NewMemRelay(activeHigh bool) *MemRelay {
	return &MemRelay{activeHigh: activeHigh}
}

func (r *MemRelay) Set(on bool) error {
	r.mu.Lock()
	changed := r.energized != on
	r.energized = on
	hook := r.OnChange
	r.mu.Unlock()

	if changed && hook != nil {
		hook(on)
	}
	return nil
}

// Energized reports the pump-side state regardless of polarity.
func (r *MemRelay) Energized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.energized
}

// Level reports the logic level on the pin.
func (r *MemRelay) Level() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeHigh {
		return r.energized
	}
	return !r.energized
}
