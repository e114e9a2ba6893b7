// Package metrics exposes Prometheus collectors for the realtime layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "talk_connections_active",
		Help: "Live realtime connections.",
	})
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "talk_rooms_active",
		Help: "Rooms with at least one member.",
	})
	SignalsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talk_signals_relayed_total",
		Help: "Signaling payloads forwarded to a live target.",
	}, []string{"kind"})
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talk_events_dropped_total",
		Help: "Outbound or inbound events that had no visible effect.",
	}, []string{"reason"})
	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talk_messages_persisted_total",
		Help: "Chat messages stored and broadcast.",
	})
	MessageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talk_message_failures_total",
		Help: "Chat messages rejected or not stored.",
	})
)

// Drop reasons.
const (
	ReasonNoTarget     = "no_target"
	ReasonBackpressure = "backpressure"
	ReasonClosed       = "closed"
	ReasonMalformed    = "malformed"
	ReasonRateLimited  = "rate_limited"
	ReasonUnknownEvent = "unknown_event"
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
