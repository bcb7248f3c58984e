// Package hw is the hardware boundary: one analog input for the moisture
// probe and one digital output for the pump relay. Everything above this
// package is hardware-agnostic.
package hw

// AnalogReader acquires one raw probe sample in [0, 4095].
type AnalogReader interface {
	Read() (int, error)
}

// Relay drives the pump. Set is idempotent: setting the current level is a
// no-op at the pin. Implementations map on/off to their configured logic
// polarity.
type Relay interface {
	Set(on bool) error
}
