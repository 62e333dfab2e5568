package action

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/promhippie/jenkins_api/pkg/version"
)

const namespace = "jenkins"

var (
	requestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_failures_total",
			Help:      "Total number of failed requests to the api per collector.",
		},
		[]string{"collector"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Histogram of latencies for requests to the api per collector.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"collector"},
	)
)

// newRegistry returns a registry carrying the process, runtime, version and
// request metrics. Collectors for Jenkins get registered by the server.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: namespace,
	}))

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(version.Collector(namespace))
	registry.MustRegister(requestFailures)
	registry.MustRegister(requestDuration)

	return registry
}

type promLogger struct {
	logger *slog.Logger
}

func (pl promLogger) Println(v ...interface{}) {
	pl.logger.Error(fmt.Sprintln(v...))
}
