// Package metrics exposes Prometheus collectors for the chat registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors updated by the room registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	connections *prometheus.GaugeVec
	rooms       prometheus.Gauge
	broadcasts  prometheus.Counter
	deliveries  *prometheus.CounterVec
	evictions   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chat_connections",
			Help: "Connections currently registered, per room.",
		}, []string{"room"}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_rooms",
			Help: "Rooms with at least one member.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_broadcasts_total",
			Help: "Broadcast calls handled by the registry.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_deliveries_total",
			Help: "Per-recipient send attempts by result.",
		}, []string{"result"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_evictions_total",
			Help: "Connections removed after a failed delivery.",
		}),
	}
	reg.MustRegister(m.connections, m.rooms, m.broadcasts, m.deliveries, m.evictions)
	return m
}

// RoomSize records the member count of room after a membership change.
// A room that dropped to zero members loses its series.
func (m *Metrics) RoomSize(room string, members, rooms int) {
	if m == nil {
		return
	}
	if members == 0 {
		m.connections.DeleteLabelValues(room)
	} else {
		m.connections.WithLabelValues(room).Set(float64(members))
	}
	m.rooms.Set(float64(rooms))
}

// Broadcast records one fan-out and its per-recipient outcomes.
func (m *Metrics) Broadcast(delivered, failed int) {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
	m.deliveries.WithLabelValues("ok").Add(float64(delivered))
	m.deliveries.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) Evicted() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

// Handler exposes the gathered metrics at /metrics
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
