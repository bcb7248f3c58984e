package model

// RawMin and RawMax bound the ADC domain of the moisture probe.
const (
	RawMin = 0
	RawMax = 4095
)

// CalibrationConfig holds the operator-set reference points and the knobs
// the sampler and transport read at runtime. DryRef/WetRef are raw ADC
// values captured with the probe in dry air and in water.
type CalibrationConfig struct {
	DryRef             int     `json:"dry_ref"`
	WetRef             int     `json:"wet_ref"`
	DryThresholdPct    float64 `json:"dry_threshold_pct"`
	TargetPct          float64 `json:"target_pct"`
	MaxRetries         int     `json:"max_retries"`
	SamplingIntervalMs int     `json:"sampling_interval_ms"`
}

// DefaultCalibration returns the factory calibration used when no persisted
// config exists.
func DefaultCalibration() CalibrationConfig {
	return CalibrationConfig{
		DryRef:             3200,
		WetRef:             1300,
		DryThresholdPct:    30,
		TargetPct:          60,
		MaxRetries:         5,
		SamplingIntervalMs: 5000,
	}
}

// Normalize clamps the tunables into their valid ranges. Reference points
// are left alone: an inverted pair is handled by MapToPercentage failing
// safe, not by silently rewriting what the operator captured.
func (c *CalibrationConfig) Normalize() {
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.MaxRetries > 10 {
		c.MaxRetries = 10
	}
	if c.SamplingIntervalMs < 1000 {
		c.SamplingIntervalMs = 1000
	}
	if c.SamplingIntervalMs > 60000 {
		c.SamplingIntervalMs = 60000
	}
	c.DryThresholdPct = clampPct(c.DryThresholdPct)
	c.TargetPct = clampPct(c.TargetPct)
}

// MapToPercentage converts a raw ADC sample to a moisture percentage using
// the two calibration references. Lower raw means wetter soil. Out-of-range
// samples and an inverted calibration (dryRef <= wetRef) both map to 0 so a
// broken setup never reports false "wet".
func MapToPercentage(raw, dryRef, wetRef int) float64 {
	if raw < RawMin || raw > RawMax {
		return 0
	}
	if dryRef <= wetRef {
		return 0
	}
	if raw <= wetRef {
		return 100
	}
	if raw >= dryRef {
		return 0
	}
	pct := 100 * (1 - float64(raw-wetRef)/float64(dryRef-wetRef))
	return clampPct(pct)
}

func clampPct(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
