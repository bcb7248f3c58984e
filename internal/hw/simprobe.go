package hw

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pvillani/soilnode/internal/model"
)

const (
	// gainPerMin: +0.6%/min of the wet range while the pump runs.
	gainPerMin = 0.006
	// simSeed: soil wetness the simulation starts from, in [0..1].
	simSeed = 0.30
)

// SimProbe emulates a capacitive soil probe. It keeps a wetness level in
// [0..1] that decays while the pump is off and rises while it is on, and
// renders it as a raw ADC value between the given dry/wet references with
// a little noise.
type SimProbe struct {
	mu          sync.Mutex
	wetness     float64
	decayPerMin float64
	irrigating  bool
	last        time.Time
	dryRef      int
	wetRef      int
	rnd         *rand.Rand
}

// NewSimProbe builds a probe that renders around the given references.
// decayPerMin is the dry-out rate per minute in [0..1] units.
func NewSimProbe(dryRef, wetRef int, decayPerMin float64) *SimProbe {
	if dryRef <= wetRef {
		dryRef, wetRef = 3200, 1300
	}
	return &SimProbe{
		wetness:     simSeed,
		decayPerMin: math.Max(0, decayPerMin),
		last:        time.Now(),
		dryRef:      dryRef,
		wetRef:      wetRef,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetIrrigating flips the water input. Wired to the relay's OnChange hook.
func (p *SimProbe) SetIrrigating(on bool) {
	p.mu.Lock()
	p.advanceLocked(time.Now())
	p.irrigating = on
	p.mu.Unlock()
}

func (p *SimProbe) Read() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.advanceLocked(now)

	// wetness 1 → wetRef, wetness 0 → dryRef
	span := float64(p.dryRef - p.wetRef)
	raw := float64(p.dryRef) - p.wetness*span
	raw += float64(p.rnd.Intn(41) - 20) // +-20 counts of noise

	if raw < model.RawMin {
		raw = model.RawMin
	}
	if raw > model.RawMax {
		raw = model.RawMax
	}
	return int(math.Round(raw)), nil
}

func (p *SimProbe) advanceLocked(now time.Time) {
	dtMin := now.Sub(p.last).Minutes()
	if dtMin < 0 {
		dtMin = 0
	}
	if p.irrigating {
		p.wetness += gainPerMin * dtMin
	} else {
		p.wetness -= p.decayPerMin * dtMin
	}
	if p.wetness < 0 {
		p.wetness = 0
	}
	if p.wetness > 1 {
		p.wetness = 1
	}
	p.last = now
}
