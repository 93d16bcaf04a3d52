package metrics

import (
	"net/http"
	"time"
)

// Recorder fans every measurement out to the in-memory collector and Prometheus.
type Recorder struct {
	collector *Collector
	prom      *Prometheus
}

// NewRecorder creates a recorder with fresh instruments.
func NewRecorder() *Recorder {
	return &Recorder{
		collector: NewCollector(),
		prom:      NewPrometheus(),
	}
}

// RecordTiming records an operation in both sinks.
func (r *Recorder) RecordTiming(op string, d time.Duration, err error) {
	r.collector.RecordTiming(op, d, err)
	r.prom.ObserveOperation(op, d, err)
}

// RecordHTTP counts a served HTTP request.
func (r *Recorder) RecordHTTP(route, method string, status int) {
	r.prom.ObserveHTTP(route, method, status)
}

// Snapshot returns the in-memory statistics.
func (r *Recorder) Snapshot() Snapshot {
	return r.collector.Snapshot()
}

// Handler serves the Prometheus registry.
func (r *Recorder) Handler() http.Handler {
	return r.prom.Handler()
}
