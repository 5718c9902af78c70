package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pscheid92/watchsync/internal/platform/version"
)

const namespace = "watchsync"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors
// and a constant build_info series identifying this instance.
func NewRegistry(instanceID string) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(newBuildInfo(version.Get(instanceID)))
	return reg
}

func newBuildInfo(info version.Info) prometheus.Collector {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build and relay identity of this instance. Always 1.",
		ConstLabels: prometheus.Labels{
			"version":     info.Version,
			"commit":      info.Commit,
			"go_version":  info.GoVersion,
			"instance_id": info.InstanceID,
		},
	})
	g.Set(1)
	return g
}

// Handler serves the registry in the Prometheus exposition format. Collection
// errors are logged by promhttp and the remaining metrics still served.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorHandling:     promhttp.ContinueOnError,
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}
