// Package tasks contains the soilnode execution units: sensor sampler,
// actuator controller, network supervisor and event logger, plus the two
// bounded queues that connect them.
package tasks

import (
	"github.com/pvillani/soilnode/internal/metrics"
	"github.com/pvillani/soilnode/internal/model"
)

// EventQueue is the bounded multi-producer/single-consumer log pipeline.
// Producers never block: on overflow the event is dropped and counted.
// Sampling and control cadence outrank log completeness.
type EventQueue struct {
	ch chan model.LogEvent
}

func NewEventQueue(size int) *EventQueue {
	if size <= 0 {
		size = 64
	}
	return &EventQueue{ch: make(chan model.LogEvent, size)}
}

// TryEnqueue offers an event without blocking. Returns false on overflow.
func (q *EventQueue) TryEnqueue(evt model.LogEvent) bool {
	select {
	case q.ch <- evt:
		return true
	default:
		metrics.EventsDropped.Inc()
		return false
	}
}

// C is the consumer side; the logger task is its only reader.
func (q *EventQueue) C() <-chan model.LogEvent { return q.ch }

// CommandQueue carries manual pump activations from the transports to the
// actuator. Capacity one: with "activate" being the only command, a second
// pending entry carries no extra information.
type CommandQueue struct {
	ch chan model.PumpCommand
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{ch: make(chan model.PumpCommand, 1)}
}

// Offer enqueues without blocking. A full queue means an activation is
// already pending; the new command is redundant and dropped.
func (q *CommandQueue) Offer(cmd model.PumpCommand) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

// TryDequeue pops the pending command if any. Never blocks; the actuator
// treats queue-empty as "no command".
func (q *CommandQueue) TryDequeue() (model.PumpCommand, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	default:
		return model.PumpCommand{}, false
	}
}
