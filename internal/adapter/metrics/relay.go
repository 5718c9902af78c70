package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics holds Prometheus metrics for the cross-instance relay and its broker client.
type RelayMetrics struct {
	Published           *prometheus.CounterVec
	Received            *prometheus.CounterVec
	ActiveSubscriptions prometheus.Gauge
	SubscribeErrors     prometheus.Counter
	BrokerOps           *prometheus.CounterVec
	BrokerOpDuration    *prometheus.HistogramVec
	BreakerState        prometheus.Gauge
	BreakerTransitions  *prometheus.CounterVec
}

// NewRelayMetrics creates and registers relay metrics on the given registry.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "published_total",
			Help:      "Control messages published to the broker, by result.",
		}, []string{"result"}),
		Received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "received_total",
			Help:      "Broker messages received by subscriptions, by outcome.",
		}, []string{"outcome"}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "active_subscriptions",
			Help:      "Number of open broker subscriptions.",
		}),
		SubscribeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "subscribe_errors_total",
			Help:      "Subscriptions that could not be established.",
		}),
		BrokerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "operations_total",
			Help:      "Redis commands executed, by command and status.",
		}, []string{"operation", "status"}),
		BrokerOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis commands in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "circuit_breaker_state",
			Help:      "Broker circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "circuit_breaker_transitions_total",
			Help:      "Broker circuit breaker state changes, by target state.",
		}, []string{"to"}),
	}

	reg.MustRegister(m.Published, m.Received, m.ActiveSubscriptions, m.SubscribeErrors,
		m.BrokerOps, m.BrokerOpDuration, m.BreakerState, m.BreakerTransitions)
	return m
}
