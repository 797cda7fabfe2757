// Package promexport bridges the Engine's internal counters into a
// Prometheus registry.
package promexport

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storyforge/authkit"
)

// Collector exposes an authkit.Metrics as Prometheus counters. Values are
// read at scrape time, so the Engine's hot path stays on plain atomics.
type Collector struct {
	metrics *authkit.Metrics
	descs   map[string]*prometheus.Desc
}

// NewCollector wraps the given counter set. Register the result with a
// prometheus.Registerer to publish it.
func NewCollector(m *authkit.Metrics) *Collector {
	c := &Collector{
		metrics: m,
		descs:   make(map[string]*prometheus.Desc),
	}
	for name := range m.Snapshot() {
		c.descs[name] = prometheus.NewDesc(
			"authkit_"+name+"_total",
			"Total number of "+name+" events.",
			nil, nil,
		)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, value := range c.metrics.Snapshot() {
		ch <- prometheus.MustNewConstMetric(c.descs[name], prometheus.CounterValue, float64(value))
	}
}

// Handler returns an http.Handler serving the Prometheus scrape endpoint
// for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ prometheus.Collector = (*Collector)(nil)
