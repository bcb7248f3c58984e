package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/pvillani/soilnode/internal/model"
	"github.com/pvillani/soilnode/internal/tasks"
	"github.com/pvillani/soilnode/pkg/mqttx"
)

// CommandIntake subscribes to the pump command topic and forwards
// activations into the actuator's queue. Commands arrive at QoS 1, so
// redeliveries are filtered by ticket: a redelivered command must not run
// the pump twice, while a deliberate repeat press stays a fresh command.
type CommandIntake struct {
	cmds     *tasks.CommandQueue
	consumer *mqttx.Consumer

	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func NewCommandIntake(client mqtt.Client, topic string, cmds *tasks.CommandQueue) *CommandIntake {
	ci := &CommandIntake{
		cmds: cmds,
		seen: make(map[string]time.Time),
		ttl:  2 * time.Minute,
	}
	ci.consumer = mqttx.NewConsumer(client, topic, 1, ci.handle)
	return ci
}

// Start blocks until ctx is cancelled.
func (ci *CommandIntake) Start(ctx context.Context) {
	ci.consumer.Consume(ctx)
}

func (ci *CommandIntake) handle(_ string, msg mqtt.Message) error {
	var cmd model.PumpCommand
	if len(msg.Payload()) > 0 {
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			// An unparseable body is still an activation request;
			// only the metadata is lost.
			log.Printf("transport: bad pump command payload: %v", err)
			cmd = model.PumpCommand{}
		}
	}

	// Dedup on the sender's ticket. Without one, only deliveries the
	// broker itself flags as redelivered are filtered by payload hash;
	// two identical button presses are two commands.
	if cmd.Ticket != "" {
		if !ci.fresh("ticket:" + cmd.Ticket) {
			return nil
		}
	} else {
		sum := sha256.Sum256(msg.Payload())
		seen := !ci.fresh("payload:" + hex.EncodeToString(sum[:]))
		if msg.Duplicate() && seen {
			return nil
		}
	}

	if cmd.Ticket == "" {
		cmd.Ticket = uuid.New().String()
	}
	cmd.Source = "mqtt"
	cmd.SentAt = time.Now().UTC()

	if !ci.cmds.Offer(cmd) {
		log.Printf("transport: pump command dropped, one already pending (ticket=%s)", cmd.Ticket)
	}
	return nil
}

// fresh reports whether this payload hash was not seen within the TTL and
// records it. Expired entries are pruned in passing.
func (ci *CommandIntake) fresh(id string) bool {
	now := time.Now()
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if exp, ok := ci.seen[id]; ok && now.Before(exp) {
		return false
	}
	for k, exp := range ci.seen {
		if now.After(exp) {
			delete(ci.seen, k)
		}
	}
	ci.seen[id] = now.Add(ci.ttl)
	return true
}
