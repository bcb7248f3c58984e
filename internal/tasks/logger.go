package tasks

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pvillani/soilnode/internal/durable"
	"github.com/pvillani/soilnode/internal/metrics"
	"github.com/pvillani/soilnode/internal/model"
)

// Logger is the single consumer of the event queue. It writes a console
// line per event and appends to the durable store through a circuit
// breaker. A dead store degrades the node to console-only logging; nothing
// here ever crashes or blocks the producers.
type Logger struct {
	events  *EventQueue
	store   durable.Store
	breaker *gobreaker.CircuitBreaker

	mu      sync.RWMutex
	lastErr time.Time
}

func NewLogger(events *EventQueue, store durable.Store) *Logger {
	if store == nil {
		store = durable.Discard{}
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "durable-log",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("logger: breaker %s %s -> %s", name, from, to)
		},
	})
	return &Logger{
		events:  events,
		store:   store,
		breaker: cb,
		lastErr: time.Now().Add(-24 * time.Hour),
	}
}

// Start consumes events until ctx is cancelled. This is the only task
// allowed to block indefinitely: it has no other work.
func (l *Logger) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-l.events.C():
			l.handle(evt)
		}
	}
}

func (l *Logger) handle(evt model.LogEvent) {
	metrics.EventsLogged.Inc()

	// Console sink: best effort, the sequenced record of what happened.
	if evt.Details != "" {
		log.Printf("eventlog: %s raw=%d pct=%.1f %s", evt.Kind, evt.Raw, evt.Percentage, evt.Details)
	} else {
		log.Printf("eventlog: %s raw=%d pct=%.1f", evt.Kind, evt.Raw, evt.Percentage)
	}

	// Durable sink: failures are swallowed per event. While the breaker
	// is open, appends are skipped outright instead of timing out.
	_, err := l.breaker.Execute(func() (interface{}, error) {
		return nil, l.store.Append(evt)
	})
	if err != nil {
		metrics.DurableErrors.Inc()
		l.mu.Lock()
		l.lastErr = time.Now()
		l.mu.Unlock()
		log.Printf("logger: durable append failed: %v", err)
	}
}

// LastErrorAge reports how long ago the last durable append failed. Used
// by the health handlers.
func (l *Logger) LastErrorAge() time.Duration {
	l.mu.RLock()
	t := l.lastErr
	l.mu.RUnlock()
	return time.Since(t)
}
