// Package state holds the mutable fields shared between the soilnode tasks.
// Access is copy-in/copy-out under a single mutex; no caller ever holds the
// guard across I/O or a timed wait.
package state

import (
	"sync"
	"time"

	"github.com/pvillani/soilnode/internal/model"
)

type Store struct {
	mu      sync.Mutex
	reading model.SensorReading
	pump    model.PumpState
	link    model.ConnectivityState

	// Calibration is read every sampling cycle and written rarely, so it
	// sits behind its own RWMutex instead of the main guard.
	calMu sync.RWMutex
	cal   model.CalibrationConfig

	started time.Time
}

func NewStore(cal model.CalibrationConfig) *Store {
	cal.Normalize()
	return &Store{
		cal: cal,
		pump: model.PumpState{
			Mode:       model.PumpIdle,
			LastChange: time.Now().UTC(),
		},
		started: time.Now(),
	}
}

func (s *Store) Reading() model.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

func (s *Store) SetReading(r model.SensorReading) {
	s.mu.Lock()
	s.reading = r
	s.mu.Unlock()
}

func (s *Store) Pump() model.PumpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pump
}

func (s *Store) SetPump(p model.PumpState) {
	s.mu.Lock()
	s.pump = p
	s.mu.Unlock()
}

func (s *Store) Link() model.ConnectivityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link
}

func (s *Store) SetLink(l model.ConnectivityState) {
	s.mu.Lock()
	s.link = l
	s.mu.Unlock()
}

func (s *Store) Calibration() model.CalibrationConfig {
	s.calMu.RLock()
	defer s.calMu.RUnlock()
	return s.cal
}

func (s *Store) SetCalibration(c model.CalibrationConfig) {
	c.Normalize()
	s.calMu.Lock()
	s.cal = c
	s.calMu.Unlock()
}

// SamplingInterval returns the current sampler period. Read fresh each
// cycle so operator changes take effect on the next tick.
func (s *Store) SamplingInterval() time.Duration {
	return time.Duration(s.Calibration().SamplingIntervalMs) * time.Millisecond
}

// Uptime reports how long the process has been running.
func (s *Store) Uptime() time.Duration {
	return time.Since(s.started)
}

// Snapshot is the point-in-time view the transport hands to observers.
type Snapshot struct {
	Reading     model.SensorReading     `json:"reading"`
	Pump        model.PumpState         `json:"pump"`
	Link        model.ConnectivityState `json:"link"`
	Calibration model.CalibrationConfig `json:"calibration"`
	UptimeMs    int64                   `json:"uptime_ms"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Reading: s.reading,
		Pump:    s.pump,
		Link:    s.link,
	}
	s.mu.Unlock()
	snap.Calibration = s.Calibration()
	snap.UptimeMs = s.Uptime().Milliseconds()
	return snap
}
