package transport

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pvillani/soilnode/internal/state"
	"github.com/pvillani/soilnode/pkg/mqttx"
)

// BroadcastInterval is the fixed cadence at which the node pushes its state
// snapshot to observers. A transport concern, not core state.
const BroadcastInterval = 2 * time.Second

// Broadcaster publishes a JSON snapshot of the shared state at a fixed
// interval. Publish failures are logged and the next tick tries again; the
// broadcast is a convenience for observers, not a delivery guarantee.
type Broadcaster struct {
	store    *state.Store
	pub      mqttx.IPublisher
	interval time.Duration
}

func NewBroadcaster(store *state.Store, pub mqttx.IPublisher) *Broadcaster {
	return &Broadcaster{store: store, pub: pub, interval: BroadcastInterval}
}

func (b *Broadcaster) Start(ctx context.Context) {
	tick := time.NewTicker(b.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			snap := b.store.Snapshot()
			if !snap.Link.Connected {
				continue
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Printf("broadcast: marshal snapshot: %v", err)
				continue
			}
			if err := b.pub.Publish(string(payload)); err != nil {
				log.Printf("broadcast: publish: %v", err)
			}
		}
	}
}
