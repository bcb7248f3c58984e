package model

import "time"

// SensorReading is the last calibrated sample taken by the sampler task.
// Valid is false when the raw value falls outside the plausible band of a
// connected probe; Moisture is forced to 0 in that case and must not be
// trusted by consumers.
type SensorReading struct {
	Moisture  float64   `json:"moisture"`
	Raw       int       `json:"raw"`
	Timestamp time.Time `json:"timestamp"`
	Valid     bool      `json:"valid"`
}

// Open band of raw values a wired probe produces. A floating pin reads near
// full scale, a shorted one near zero.
const (
	ConnectedRawLow  = 100
	ConnectedRawHigh = 4000
)

// ProbeConnected reports whether a raw sample is plausible for a probe that
// is actually wired up.
func ProbeConnected(raw int) bool {
	return raw > ConnectedRawLow && raw < ConnectedRawHigh
}
