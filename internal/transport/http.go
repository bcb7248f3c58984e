// Package transport is the presentation boundary: it reads state snapshots
// for remote observers and forwards operator commands into the actuator's
// queue. It owns no state of its own.
package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/pvillani/soilnode/internal/config"
	"github.com/pvillani/soilnode/internal/metrics"
	"github.com/pvillani/soilnode/internal/model"
	"github.com/pvillani/soilnode/internal/state"
	"github.com/pvillani/soilnode/internal/tasks"
)

// API bundles what the HTTP handlers need. MQTT may be nil when the node
// runs without a broker.
type API struct {
	Store      *state.Store
	Commands   *tasks.CommandQueue
	Logger     *tasks.Logger
	MQTT       mqtt.Client
	ConfigPath string
}

func NewMux(api *API) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", api.health)
	mux.HandleFunc("/readyz", api.ready)
	mux.HandleFunc("/api/status", api.status)
	mux.HandleFunc("/api/pump/start", api.pumpStart)
	mux.HandleFunc("/api/config", api.calibration)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		MQTTConnected   bool    `json:"mqtt_connected"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
	}
	st := status{
		MQTTConnected:   a.MQTT != nil && a.MQTT.IsConnectionOpen(),
		LastWriteErrorS: a.Logger.LastErrorAge().Seconds(),
	}
	// No configured broker is not a failed dependency; a standalone node
	// is healthy on its own.
	brokerOK := a.MQTT == nil || a.MQTT.IsConnectionOpen()
	logOK := a.Logger.LastErrorAge() > 30*time.Second
	switch {
	case brokerOK && logOK:
		st.Status = "ok"
	case brokerOK || logOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}
	writeJSON(w, st)
}

func (a *API) ready(w http.ResponseWriter, _ *http.Request) {
	ready := a.MQTT == nil || a.MQTT.IsConnectionOpen()
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, map[string]bool{"ready": ready})
}

func (a *API) status(w http.ResponseWriter, _ *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	out := struct {
		state.Snapshot
		HeapBytes uint64 `json:"heap_bytes"`
	}{
		Snapshot:  a.Store.Snapshot(),
		HeapBytes: ms.HeapAlloc,
	}
	writeJSON(w, out)
}

func (a *API) pumpStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cmd := model.PumpCommand{
		Ticket: uuid.New().String(),
		Source: "http",
		SentAt: time.Now().UTC(),
	}
	accepted := a.Commands.Offer(cmd)
	if !accepted {
		log.Printf("transport: pump command dropped, one already pending")
	}
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, struct {
		Accepted bool   `json:"accepted"`
		Ticket   string `json:"ticket"`
	}{accepted, cmd.Ticket})
}

func (a *API) calibration(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Store.Calibration())

	case http.MethodPut, http.MethodPost:
		var cfg model.CalibrationConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "bad calibration payload", http.StatusBadRequest)
			return
		}
		a.Store.SetCalibration(cfg)
		cfg = a.Store.Calibration()

		// Persist once; a failed save is logged, never retried.
		saved := true
		if err := config.Save(a.ConfigPath, cfg); err != nil {
			saved = false
			log.Printf("transport: calibration save failed: %v", err)
		}
		writeJSON(w, struct {
			model.CalibrationConfig
			Saved bool `json:"saved"`
		}{cfg, saved})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
