package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus owns a private registry with the gepetto instruments.
type Prometheus struct {
	registry     *prometheus.Registry
	opDuration   *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// NewPrometheus registers the operation histogram, the HTTP request counter
// and the standard Go/process collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()

	p := &Prometheus{
		registry: reg,
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gepetto",
			Name:      "operation_duration_seconds",
			Help:      "Duration of proxy, backend and LLM operations.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"op", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gepetto",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route, method and status code.",
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(
		p.opDuration,
		p.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// ObserveOperation records an operation duration labelled ok or error.
func (p *Prometheus) ObserveOperation(op string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.opDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// ObserveHTTP counts one served request.
func (p *Prometheus) ObserveHTTP(route, method string, status int) {
	p.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
