package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pvillani/soilnode/internal/hw"
	"github.com/pvillani/soilnode/internal/metrics"
	"github.com/pvillani/soilnode/internal/model"
	"github.com/pvillani/soilnode/internal/state"
)

const (
	// DefaultDwell is how long the relay stays energized per manual
	// activation. No feedback: the controller never re-checks moisture.
	DefaultDwell = 10 * time.Second

	// actuatorPoll keeps the controller responsive to both new commands
	// and dwell expiry, independent of the sampling interval.
	actuatorPoll = 100 * time.Millisecond
)

// Actuator consumes manual pump commands and drives the relay for a fixed
// dwell. Commands arriving during an active dwell are coalesced, never
// queued for later.
type Actuator struct {
	store  *state.Store
	relay  hw.Relay
	events *EventQueue
	cmds   *CommandQueue
	dwell  time.Duration
	poll   time.Duration

	active bool
	offAt  time.Time
	ticket string

	// set when the last relay drive failed; retried on the next tick
	needDrive bool
	wantOn    bool
}

func NewActuator(store *state.Store, relay hw.Relay, events *EventQueue, cmds *CommandQueue, dwell time.Duration) *Actuator {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	return &Actuator{
		store:  store,
		relay:  relay,
		events: events,
		cmds:   cmds,
		dwell:  dwell,
		poll:   actuatorPoll,
	}
}

// Start polls the command queue until ctx is cancelled. On shutdown an
// in-flight activation is cut short so the relay never outlives the
// process.
func (a *Actuator) Start(ctx context.Context) {
	tick := time.NewTicker(a.poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			if a.active {
				a.stopPump(time.Now().UTC())
			}
			return
		case now := <-tick.C:
			a.step(now.UTC())
		}
	}
}

func (a *Actuator) step(now time.Time) {
	if a.needDrive {
		a.driveRelay(a.wantOn)
	}
	if a.active {
		// Coalesce anything that arrived mid-dwell; the dwell is
		// neither extended nor restarted.
		for {
			if _, ok := a.cmds.TryDequeue(); !ok {
				break
			}
			metrics.CommandsCoalesced.Inc()
			log.Printf("actuator: command ignored, pump already on until %s", a.offAt.Format(time.RFC3339))
		}
		if !now.Before(a.offAt) {
			a.stopPump(now)
		}
		return
	}

	cmd, ok := a.cmds.TryDequeue()
	if !ok {
		return
	}
	a.startPump(now, cmd)
}

func (a *Actuator) startPump(now time.Time, cmd model.PumpCommand) {
	snap := a.store.Reading()
	details := fmt.Sprintf("ticket=%s source=%s dwell=%s", cmd.Ticket, cmd.Source, a.dwell)
	a.events.TryEnqueue(model.NewLogEvent(model.EventPumpManualStart, snap.Raw, snap.Moisture, details))

	a.driveRelay(true)

	pump := a.store.Pump()
	pump.Active = true
	pump.Mode = model.PumpManual
	pump.LastChange = now
	a.store.SetPump(pump)

	a.active = true
	a.offAt = now.Add(a.dwell)
	a.ticket = cmd.Ticket
	metrics.PumpActivations.Inc()
	log.Printf("actuator: pump ON for %s (ticket=%s source=%s)", a.dwell, cmd.Ticket, cmd.Source)
}

func (a *Actuator) stopPump(now time.Time) {
	a.driveRelay(false)

	pump := a.store.Pump()
	pump.Active = false
	pump.Mode = model.PumpIdle
	pump.LastChange = now
	a.store.SetPump(pump)

	snap := a.store.Reading()
	a.events.TryEnqueue(model.NewLogEvent(model.EventPumpManualStop, snap.Raw, snap.Moisture, "ticket="+a.ticket))

	a.active = false
	a.ticket = ""
	log.Printf("actuator: pump OFF")
}

// driveRelay sets the relay level, tracking consecutive failures in the
// pump's retry counter. The drive is idempotent, so a failed attempt is
// simply repeated on the next tick.
func (a *Actuator) driveRelay(on bool) {
	err := a.relay.Set(on)
	a.wantOn = on
	a.needDrive = err != nil

	pump := a.store.Pump()
	if err != nil {
		max := a.store.Calibration().MaxRetries
		if pump.RetryCount < max {
			pump.RetryCount++
		}
		a.store.SetPump(pump)
		log.Printf("actuator: relay drive error (attempt %d): %v", pump.RetryCount, err)
		return
	}
	if pump.RetryCount != 0 {
		pump.RetryCount = 0
		a.store.SetPump(pump)
	}
}
