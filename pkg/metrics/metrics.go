// Package metrics provides Prometheus instrumentation for form submissions
// and the outbound REST calls they make.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-formpipe/pkg/submission"
	"github.com/goliatone/go-formpipe/pkg/transport"
)

const namespace = "formpipe"

// Collector owns the submission metric vectors. Build one per registry.
type Collector struct {
	// SubmissionsTotal counts submission attempts by form and outcome.
	SubmissionsTotal *prometheus.CounterVec
	// SubmissionDuration observes whole attempts in seconds.
	SubmissionDuration *prometheus.HistogramVec
	// StepsTotal counts executed write steps by form, step and result.
	StepsTotal *prometheus.CounterVec
	// StepDuration observes write step latency in seconds.
	StepDuration *prometheus.HistogramVec
	// PartialFailuresTotal counts failures that left earlier records behind.
	PartialFailuresTotal *prometheus.CounterVec
	// HTTPRequestsTotal counts outbound requests by method and status code.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration observes outbound request latency.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector registers the metric vectors with reg. A nil reg uses the
// default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "attempts_total",
				Help:      "Total number of submission attempts by outcome",
			},
			[]string{"form", "outcome"},
		),
		SubmissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "duration_seconds",
				Help:      "Duration of submission attempts in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"form"},
		),
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "steps_total",
				Help:      "Total number of executed write steps by result",
			},
			[]string{"form", "step", "result"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "step_duration_seconds",
				Help:      "Duration of write steps in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"form", "step"},
		),
		PartialFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "orphaned_total",
				Help:      "Total number of failures after an earlier step created a record",
			},
			[]string{"form", "step"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http_client",
				Name:      "requests_total",
				Help:      "Total number of outbound HTTP requests",
			},
			[]string{"method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http_client",
				Name:      "request_duration_seconds",
				Help:      "Duration of outbound HTTP requests in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
	}
}

// Observer returns a submission.Observer backed by c.
func (c *Collector) Observer() submission.Observer {
	return observer{c: c}
}

type observer struct {
	c *Collector
}

func (o observer) StepStarted(string, int, string) {}

func (o observer) StepFinished(form string, _ int, name string, _ int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.c.StepsTotal.WithLabelValues(form, name, result).Inc()
	o.c.StepDuration.WithLabelValues(form, name).Observe(elapsed.Seconds())
}

func (o observer) Finished(form string, outcome submission.Outcome, elapsed time.Duration) {
	o.c.SubmissionsTotal.WithLabelValues(form, string(outcome.Kind())).Inc()
	o.c.SubmissionDuration.WithLabelValues(form).Observe(elapsed.Seconds())
	if failure, ok := outcome.(submission.PartialFailure); ok && failure.Orphaned() {
		o.c.PartialFailuresTotal.WithLabelValues(form, failure.StepName).Inc()
	}
}

// InstrumentAdapter wraps next so every call is counted. Calls without a
// response are recorded with status_code "error".
func (c *Collector) InstrumentAdapter(next transport.Adapter) transport.Adapter {
	return transport.AdapterFunc(func(ctx context.Context, req transport.Request) (transport.Response, error) {
		start := time.Now()
		res, err := next.Do(ctx, req)
		code := "error"
		if err == nil {
			code = strconv.Itoa(res.Status)
		}
		c.HTTPRequestsTotal.WithLabelValues(req.Method, code).Inc()
		c.HTTPRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
		return res, err
	})
}
