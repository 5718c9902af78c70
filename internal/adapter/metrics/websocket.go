package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for viewer connections and delivery.
type WebSocketMetrics struct {
	ActiveConnections *prometheus.GaugeVec
	FramesReceived    *prometheus.CounterVec
	Authentications   *prometheus.CounterVec
	Deliveries        *prometheus.CounterVec
	SendDuration      prometheus.Histogram
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of open WebSocket connections, by endpoint.",
		}, []string{"endpoint"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "frames_received_total",
			Help:      "Inbound text frames, by decoded kind and session state.",
		}, []string{"kind", "state"}),
		Authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "authentications_total",
			Help:      "In-band authentication attempts, by result.",
		}, []string{"result"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "deliveries_total",
			Help:      "Outbound messages offered to connection queues, by source and result.",
		}, []string{"source", "result"}),
		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "send_duration_seconds",
			Help:      "Time spent writing a single frame to a connection.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	reg.MustRegister(m.ActiveConnections, m.FramesReceived, m.Authentications, m.Deliveries, m.SendDuration)
	return m
}
