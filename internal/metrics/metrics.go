// Package metrics exposes the soilnode counters on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_samples_total",
		Help: "Raw sensor samples acquired.",
	})
	SamplesInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_samples_invalid_total",
		Help: "Samples outside the connected-probe band.",
	})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_log_events_dropped_total",
		Help: "Log events dropped on queue overflow.",
	})
	EventsLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_log_events_total",
		Help: "Log events consumed by the logger task.",
	})
	DurableErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_durable_append_errors_total",
		Help: "Failed appends to the durable event store.",
	})
	PumpActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_pump_activations_total",
		Help: "Manual pump activations executed.",
	})
	CommandsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_pump_commands_coalesced_total",
		Help: "Pump commands ignored because an activation was in progress.",
	})
	LinkReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soilnode_link_reconnects_total",
		Help: "Reconnection attempts made by the network supervisor.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
