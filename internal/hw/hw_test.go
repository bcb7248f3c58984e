package hw

import (
	"testing"

	"github.com/pvillani/soilnode/internal/model"
)

func TestMemRelayPolarity(t *testing.T) {
	high := NewMemRelay(true)
	low := NewMemRelay(false)

	// De-energized defaults.
	if high.Level() != false || low.Level() != true {
		t.Errorf("idle levels: activeHigh=%v activeLow=%v", high.Level(), low.Level())
	}

	_ = high.Set(true)
	_ = low.Set(true)
	if high.Level() != true || low.Level() != false {
		t.Errorf("energized levels: activeHigh=%v activeLow=%v", high.Level(), low.Level())
	}
}

func TestMemRelayHookFiresOnTransitionsOnly(t *testing.T) {
	r := NewMemRelay(true)
	var calls []bool
	r.OnChange = func(on bool) { calls = append(calls, on) }

	_ = r.Set(true)
	_ = r.Set(true) // idempotent: no second call
	_ = r.Set(false)

	if len(calls) != 2 || calls[0] != true || calls[1] != false {
		t.Errorf("hook calls = %v, want [true false]", calls)
	}
}

func TestSimProbeStaysInRange(t *testing.T) {
	p := NewSimProbe(3200, 1300, 0.001)
	for i := 0; i < 100; i++ {
		raw, err := p.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if raw < model.RawMin || raw > model.RawMax {
			t.Fatalf("raw %d out of ADC range", raw)
		}
	}
}

func TestSimProbeRejectsInvertedReferences(t *testing.T) {
	// Falls back to sane references rather than rendering garbage.
	p := NewSimProbe(1000, 3000, 0.001)
	raw, err := p.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !model.ProbeConnected(raw) {
		t.Errorf("fallback probe reads out of band: %d", raw)
	}
}
