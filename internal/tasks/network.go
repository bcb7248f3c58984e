package tasks

import (
	"context"
	"log"
	"time"

	"github.com/pvillani/soilnode/internal/metrics"
	"github.com/pvillani/soilnode/internal/model"
	"github.com/pvillani/soilnode/internal/state"
)

// LinkMonitor is the supervisor's view of the wireless link. Reconnect is
// fire-and-forget; the next poll cycle observes the outcome.
type LinkMonitor interface {
	Connected() bool
	Reconnect()
}

const networkPoll = time.Second

// backoff bounds: base doubles per retry up to 64x, ceiling 30s.
const (
	backoffBase    = time.Second
	backoffMaxExp  = 6
	backoffCeiling = 30 * time.Second
)

// BackoffDelay returns the wait before reconnection attempt number retry
// (1-based): 1s, 2s, 4s, 8s, 16s, then capped at 30s.
func BackoffDelay(retry int) time.Duration {
	exp := retry - 1
	if exp < 0 {
		exp = 0
	}
	if exp > backoffMaxExp {
		exp = backoffMaxExp
	}
	d := backoffBase << uint(exp)
	if d > backoffCeiling {
		d = backoffCeiling
	}
	return d
}

// NetworkSupervisor watches the link at a fixed cadence, keeps the shared
// connectivity flag current and schedules reconnects with capped
// exponential backoff. Link loss is handled entirely here; it never
// propagates as an error.
type NetworkSupervisor struct {
	store  *state.Store
	events *EventQueue
	link   LinkMonitor
	poll   time.Duration

	wasUp bool
	retry int

	delay func(int) time.Duration
}

func NewNetworkSupervisor(store *state.Store, events *EventQueue, link LinkMonitor) *NetworkSupervisor {
	return &NetworkSupervisor{
		store:  store,
		events: events,
		link:   link,
		poll:   networkPoll,
		delay:  BackoffDelay,
	}
}

func (n *NetworkSupervisor) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(n.poll):
			n.step(ctx)
		}
	}
}

func (n *NetworkSupervisor) step(ctx context.Context) {
	up := n.link.Connected()

	switch {
	case up && !n.wasUp:
		n.retry = 0
		n.store.SetLink(model.ConnectivityState{Connected: true})
		snap := n.store.Reading()
		n.events.TryEnqueue(model.NewLogEvent(model.EventWifiConnected, snap.Raw, snap.Moisture, ""))
		log.Printf("network: link up")
		n.wasUp = true

	case !up && n.wasUp:
		n.wasUp = false
		n.store.SetLink(model.ConnectivityState{Connected: false, RetryCount: n.retry})
		snap := n.store.Reading()
		n.events.TryEnqueue(model.NewLogEvent(model.EventWifiDisconnect, snap.Raw, snap.Moisture, ""))
		log.Printf("network: link lost")
		n.retryAfterBackoff(ctx)

	case !up:
		n.retryAfterBackoff(ctx)
	}
}

func (n *NetworkSupervisor) retryAfterBackoff(ctx context.Context) {
	n.retry++
	n.store.SetLink(model.ConnectivityState{Connected: false, RetryCount: n.retry})

	delay := n.delay(n.retry)
	log.Printf("network: reconnect attempt %d in %s", n.retry, delay)

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}
	metrics.LinkReconnects.Inc()
	n.link.Reconnect()
}
