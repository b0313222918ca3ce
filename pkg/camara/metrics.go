package camara

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics instruments API traffic during collection.
type Metrics struct {
	Requests prometheus.Counter
	Retries  prometheus.Counter
	NotFound prometheus.Counter
	Pages    prometheus.Counter
	Records  prometheus.Counter
}

// NewMetrics creates and registers the collection counters.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plenario",
			Subsystem: "camara",
			Name:      "requests_total",
			Help:      "API requests issued.",
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plenario",
			Subsystem: "camara",
			Name:      "retries_total",
			Help:      "Requests retried after a retryable failure.",
		}),
		NotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plenario",
			Subsystem: "camara",
			Name:      "not_found_total",
			Help:      "Resources the API answered with 404.",
		}),
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plenario",
			Subsystem: "camara",
			Name:      "pages_total",
			Help:      "List pages fetched.",
		}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plenario",
			Subsystem: "camara",
			Name:      "records_total",
			Help:      "Records received across list pages.",
		}),
	}
	registerer.MustRegister(metrics.Requests, metrics.Retries, metrics.NotFound, metrics.Pages, metrics.Records)
	return metrics
}

// StartMetricsServer exposes the registry on addr. The caller shuts the
// returned server down when collection finishes.
func StartMetricsServer(addr string, registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return server
}
