package tasks

import (
	"context"
	"log"
	"time"

	"github.com/pvillani/soilnode/internal/hw"
	"github.com/pvillani/soilnode/internal/metrics"
	"github.com/pvillani/soilnode/internal/model"
	"github.com/pvillani/soilnode/internal/state"
)

// Sampler periodically reads the moisture probe, maps the raw value to a
// calibrated percentage and publishes the result to the shared state and
// the event queue.
type Sampler struct {
	store  *state.Store
	probe  hw.AnalogReader
	events *EventQueue
}

func NewSampler(store *state.Store, probe hw.AnalogReader, events *EventQueue) *Sampler {
	return &Sampler{store: store, probe: probe, events: events}
}

// Start runs the sampling loop until ctx is cancelled. The interval is
// re-read from the calibration each cycle so operator changes apply on the
// next tick.
func (s *Sampler) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.store.SamplingInterval()):
			s.sampleOnce()
		}
	}
}

func (s *Sampler) sampleOnce() {
	raw, err := s.probe.Read()
	if err != nil {
		log.Printf("sampler: read error: %v", err)
		return
	}
	metrics.SamplesTotal.Inc()

	connected := model.ProbeConnected(raw)
	cal := s.store.Calibration()

	moisture := 0.0
	status := "DISCONNECTED"
	if connected {
		moisture = model.MapToPercentage(raw, cal.DryRef, cal.WetRef)
		status = "OK"
	} else {
		metrics.SamplesInvalid.Inc()
	}

	s.store.SetReading(model.SensorReading{
		Moisture:  moisture,
		Raw:       raw,
		Timestamp: time.Now().UTC(),
		Valid:     connected,
	})

	s.events.TryEnqueue(model.NewLogEvent(model.EventSensorRead, raw, moisture, status))
}
