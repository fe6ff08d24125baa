package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Metrics = struct {
	ActiveConnections  prometheus.Gauge
	ActiveLiveSessions prometheus.Gauge
	EventsTotal        *prometheus.CounterVec
	ChunksForwarded    *prometheus.CounterVec
	ChunksDropped      *prometheus.CounterVec
	ChunkBytes         *prometheus.HistogramVec
	LiveMessagesTotal  prometheus.Counter
	LiveConnectLatency prometheus.Histogram
	ErrorsTotal        *prometheus.CounterVec
}{
	ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ada",
		Name:      "active_websocket_connections",
		Help:      "Number of active WebSocket connections.",
	}),

	ActiveLiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ada",
		Name:      "active_live_sessions",
		Help:      "Number of open sessions against the live model endpoint.",
	}),

	EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ada",
		Name:      "events_total",
		Help:      "Total client events by name and status.",
	}, []string{"event", "status"}),

	ChunksForwarded: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ada",
		Name:      "chunks_forwarded_total",
		Help:      "Media chunks forwarded to the live session by kind (frame/audio).",
	}, []string{"kind"}),

	ChunksDropped: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ada",
		Name:      "chunks_dropped_total",
		Help:      "Media chunks dropped before reaching the live session.",
	}, []string{"kind", "reason"}),

	ChunkBytes: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ada",
		Name:      "chunk_bytes",
		Help:      "Size of forwarded media chunks in bytes.",
		Buckets:   prometheus.ExponentialBuckets(512, 4, 8),
	}, []string{"kind"}),

	LiveMessagesTotal: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ada",
		Name:      "live_messages_total",
		Help:      "Messages received from live sessions.",
	}),

	LiveConnectLatency: promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ada",
		Name:      "live_connect_seconds",
		Help:      "Time to establish a live session.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}),

	ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ada",
		Name:      "errors_total",
		Help:      "Total errors by component.",
	}, []string{"component"}),
}
