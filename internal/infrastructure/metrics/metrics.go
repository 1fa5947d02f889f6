package metrics

import (
	"context"
	"net/http"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "duelrooms"

// Recorder owns the service's Prometheus collectors on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	activeRooms    prometheus.Gauge
	lifecycle      *prometheus.CounterVec
	commands       *prometheus.CounterVec
	connections    prometheus.Gauge
	requestLatency *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms currently held in memory.",
		}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_events_total",
			Help:      "Room lifecycle transitions by type.",
		}, []string{"type"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_commands_total",
			Help:      "Client socket commands by event and result code.",
		}, []string{"event", "result"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "socket_connections",
			Help:      "Open websocket connections.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	r.registry.MustRegister(
		r.activeRooms,
		r.lifecycle,
		r.commands,
		r.connections,
		r.requestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Observe implements lobby.Observer.
func (r *Recorder) Observe(_ context.Context, ev domain.RoomEvent) {
	r.lifecycle.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case domain.EventRoomCreated:
		r.activeRooms.Inc()
	case domain.EventRoomClosed, domain.EventRoomExpired:
		r.activeRooms.Dec()
	}
}

// Command counts one dispatched socket command. result is "ok" or an error code.
func (r *Recorder) Command(event, result string) {
	r.commands.WithLabelValues(event, result).Inc()
}

func (r *Recorder) ConnectionOpened() { r.connections.Inc() }

func (r *Recorder) ConnectionClosed() { r.connections.Dec() }

func (r *Recorder) ObserveRequest(method, status string, seconds float64) {
	r.requestLatency.WithLabelValues(method, status).Observe(seconds)
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
