// Package metrics defines the Prometheus collectors exported by mail-agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mail_agent"

// Metrics groups the collectors updated while turns are processed.
type Metrics struct {
	registry *prometheus.Registry

	Turns             *prometheus.CounterVec
	InferenceRequests *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec
	MailOperations    *prometheus.CounterVec
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed user turns by directive and outcome.",
		}, []string{"directive", "outcome"}),
		InferenceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Inference service calls by purpose and result.",
		}, []string{"purpose", "result"}),
		InferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_request_duration_seconds",
			Help:      "Inference service call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"purpose"}),
		MailOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_operations_total",
			Help:      "Mail transport operations by operation, transport and result.",
		}, []string{"op", "transport", "result"}),
	}

	m.registry.MustRegister(m.Turns, m.InferenceRequests, m.InferenceDuration, m.MailOperations)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
