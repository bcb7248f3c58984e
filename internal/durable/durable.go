// Package durable is the append-only event store boundary. The logger task
// is its only caller and tolerates the store being absent or down.
package durable

import "github.com/pvillani/soilnode/internal/model"

// Store appends one event record. Implementations must not block
// indefinitely; a failed append is reported, never retried here.
type Store interface {
	Append(evt model.LogEvent) error
}

// Discard is the stand-in when no durable sink is configured.
type Discard struct{}

func (Discard) Append(model.LogEvent) error { return nil }
