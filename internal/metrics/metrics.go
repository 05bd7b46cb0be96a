// Package metrics exposes director timings as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/events/bus"
)

var (
	_ director.MetricsRecorder = (*Collector)(nil)
	_ bus.Observer             = (*Collector)(nil)
)

// Collector registers the director metrics against a registerer. Registering
// twice against the same registerer reuses the existing collectors.
type Collector struct {
	gatherer prometheus.Gatherer

	LastRebuild  prometheus.Gauge
	LastSort     prometheus.Gauge
	LastSearch   prometheus.Gauge
	Indexed      prometheus.Gauge
	Rejected     prometheus.Gauge
	Queries      prometheus.Counter
	PathSearch   *prometheus.HistogramVec
	PathsFailed  *prometheus.CounterVec
	BusEvents    *prometheus.CounterVec
	BusDelivered *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.LastRebuild, "director_last_rebuild_seconds", "Duration of the most recent index rebuild."},
		{&c.LastSort, "director_last_sort_seconds", "Duration of the most recent threat sort."},
		{&c.LastSearch, "director_last_search_seconds", "Duration of the most recent spatial or key search."},
		{&c.Indexed, "director_indexed_entities", "Active entities in the spatial index after the last rebuild."},
		{&c.Rejected, "director_rejected_inserts", "Active entities outside the arena in the last rebuild."},
	}
	for _, g := range gauges {
		if *g.dst, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name); err != nil {
			return nil, err
		}
	}

	if c.Queries, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "director_queries_total",
		Help: "Queries answered by the director.",
	}), "director_queries_total"); err != nil {
		return nil, err
	}

	if c.PathSearch, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "director_path_search_seconds",
		Help:    "Duration of path searches by planner.",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"planner"}), "director_path_search_seconds"); err != nil {
		return nil, err
	}

	if c.PathsFailed, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "director_path_failures_total",
		Help: "Path searches that found no route, by planner.",
	}, []string{"planner"}), "director_path_failures_total"); err != nil {
		return nil, err
	}

	if c.BusEvents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "director_bus_events_total",
		Help: "Events published on the in-process bus, by type and outcome.",
	}, []string{"type", "outcome"}), "director_bus_events_total"); err != nil {
		return nil, err
	}

	if c.BusDelivered, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "director_bus_delivery_seconds",
		Help:    "Time spent delivering one event to its handlers.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 7),
	}, []string{"type"}), "director_bus_delivery_seconds"); err != nil {
		return nil, err
	}

	return c, nil
}

// register adds col to reg, or returns the collector already registered
// under the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, col C, name string) (C, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, fmt.Errorf("register %s: %w", name, err)
	}
	return col, nil
}

func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler serves the collector's gatherer in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{})
}

func (c *Collector) ObserveRebuild(took time.Duration, indexed, rejected int) {
	if c == nil {
		return
	}
	c.LastRebuild.Set(took.Seconds())
	c.Indexed.Set(float64(indexed))
	c.Rejected.Set(float64(rejected))
}

func (c *Collector) ObserveQuery(kind string, took time.Duration) {
	if c == nil {
		return
	}
	c.Queries.Inc()
	if kind == director.QuerySort {
		c.LastSort.Set(took.Seconds())
		return
	}
	c.LastSearch.Set(took.Seconds())
}

func (c *Collector) ObservePath(planner string, took time.Duration, found bool) {
	if c == nil {
		return
	}
	c.PathSearch.WithLabelValues(planner).Observe(took.Seconds())
	if !found {
		c.PathsFailed.WithLabelValues(planner).Inc()
	}
}

func (c *Collector) OnPublish(string, bus.Event) {}

func (c *Collector) OnDelivered(eventType string, _ int, err error, took time.Duration) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.BusEvents.WithLabelValues(eventType, outcome).Inc()
	c.BusDelivered.WithLabelValues(eventType).Observe(took.Seconds())
}
