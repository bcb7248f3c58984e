package model

import "time"

// PumpMode indicates why the pump relay is in its current state.
type PumpMode string

const (
	PumpIdle   PumpMode = "IDLE"
	PumpManual PumpMode = "MANUAL"
)

// PumpState is mutated exclusively by the actuator task. Active implies
// Mode != PumpIdle; LastChange moves on every transition.
type PumpState struct {
	Active     bool      `json:"active"`
	Mode       PumpMode  `json:"mode"`
	RetryCount int       `json:"retry_count"`
	LastChange time.Time `json:"last_change"`
}

// PumpCommand asks the actuator for one manual activation. Ticket ties the
// resulting start/stop events together; Source names the transport that
// forwarded the command.
type PumpCommand struct {
	Ticket string    `json:"ticket"`
	Source string    `json:"source"`
	SentAt time.Time `json:"sent_at"`
}
