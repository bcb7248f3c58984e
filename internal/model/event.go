package model

import (
	"time"
	"unicode/utf8"
)

// Event kinds written to the system log.
const (
	EventSensorRead      = "SENSOR_READ"
	EventPumpManualStart = "PUMP_MANUAL_START"
	EventPumpManualStop  = "PUMP_MANUAL_STOP"
	EventWifiConnected   = "WIFI_CONNECTED"
	EventWifiDisconnect  = "WIFI_DISCONNECTED"
)

// maxDetails bounds the free-text part of an event so a single producer
// cannot blow up a log line or a stored record.
const maxDetails = 120

// LogEvent is immutable once constructed; ownership passes to the logger
// task through the event queue.
type LogEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Raw        int       `json:"raw"`
	Percentage float64   `json:"percentage"`
	Kind       string    `json:"event"`
	Details    string    `json:"details"`
}

// NewLogEvent stamps an event with the current time and truncates Details
// to its bound. The cut backs up to a rune boundary so the stored text
// stays valid UTF-8.
func NewLogEvent(kind string, raw int, pct float64, details string) LogEvent {
	if len(details) > maxDetails {
		cut := maxDetails
		for cut > 0 && !utf8.RuneStart(details[cut]) {
			cut--
		}
		details = details[:cut]
	}
	return LogEvent{
		Timestamp:  time.Now().UTC(),
		Raw:        raw,
		Percentage: pct,
		Kind:       kind,
		Details:    details,
	}
}
