// Package observability bundles Prometheus metrics and OpenTelemetry
// tracing for the locationkit manager.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MonitorCollector bundles Prometheus metrics for the request lifecycle
// and event dispatch. All methods tolerate a nil receiver so callers can
// leave metrics unconfigured.
type MonitorCollector struct {
	gatherer prometheus.Gatherer

	Requests          *prometheus.CounterVec
	Events            *prometheus.CounterVec
	DispatchDurations *prometheus.HistogramVec

	ActiveRequests      prometheus.Gauge
	WaitingAuthRequests prometheus.Gauge
}

// NewMonitorCollector registers locationkit metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Re-registration of identical collectors is tolerated.
func NewMonitorCollector(reg prometheus.Registerer) (*MonitorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locationkit_requests_total",
		Help: "Monitoring/ranging requests by kind and outcome.",
	}, []string{"kind", "result"})
	requests, err := registerCounterVec(reg, requests, "locationkit_requests_total")
	if err != nil {
		return nil, err
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locationkit_events_total",
		Help: "Platform events dispatched to requests, by type.",
	}, []string{"type"})
	events, err = registerCounterVec(reg, events, "locationkit_events_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "locationkit_dispatch_duration_seconds",
		Help:    "Delegate event dispatch latency in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}, []string{"type"})
	durations, err = registerHistogramVec(reg, durations, "locationkit_dispatch_duration_seconds")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "locationkit_active_requests",
		Help: "Current number of tracked requests.",
	}), "locationkit_active_requests")
	if err != nil {
		return nil, err
	}
	waiting, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "locationkit_waiting_auth_requests",
		Help: "Tracked requests blocked on an authorization prompt.",
	}), "locationkit_waiting_auth_requests")
	if err != nil {
		return nil, err
	}

	return &MonitorCollector{
		gatherer:            gatherer,
		Requests:            requests,
		Events:              events,
		DispatchDurations:   durations,
		ActiveRequests:      active,
		WaitingAuthRequests: waiting,
	}, nil
}

// RecordRequest counts one request outcome.
func (c *MonitorCollector) RecordRequest(kind, result string) {
	if c == nil || c.Requests == nil {
		return
	}
	c.Requests.WithLabelValues(kind, result).Inc()
}

// RecordEvent counts one dispatched platform event.
func (c *MonitorCollector) RecordEvent(typ string) {
	if c == nil || c.Events == nil {
		return
	}
	c.Events.WithLabelValues(typ).Inc()
}

// ObserveDispatch records the latency of one delegate dispatch.
func (c *MonitorCollector) ObserveDispatch(typ string, seconds float64) {
	if c == nil || c.DispatchDurations == nil {
		return
	}
	c.DispatchDurations.WithLabelValues(typ).Observe(seconds)
}

// SetRequestCounts drives the request gauges from the manager's tracked
// collection.
func (c *MonitorCollector) SetRequestCounts(active, waitingAuth int) {
	if c == nil {
		return
	}
	if c.ActiveRequests != nil {
		c.ActiveRequests.Set(float64(active))
	}
	if c.WaitingAuthRequests != nil {
		c.WaitingAuthRequests.Set(float64(waitingAuth))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *MonitorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
