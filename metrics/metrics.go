package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_connected_clients",
		Help: "Number of currently registered connections.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_active_rooms",
		Help: "Number of rooms currently in the directory.",
	})

	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_events_total",
		Help: "Inbound events dispatched, by event tag.",
	}, []string{"event"})

	DroppedEnvelopes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_dropped_envelopes_total",
		Help: "Inbound frames dropped because they could not be decoded.",
	})
)

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
