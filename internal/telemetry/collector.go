package telemetry

import (
	"context"
	"time"

	"github.com/benvon/todo-app/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

const statsTimeout = 2 * time.Second

// StatsSource is the part of the store the collector reads
type StatsSource interface {
	Stats(ctx context.Context) store.Stats
}

// StoreCollector exposes todo counts as gauges computed at scrape time
type StoreCollector struct {
	source StatsSource
	items  *prometheus.Desc
	lastID *prometheus.Desc
}

// NewStoreCollector returns a collector reading from source
func NewStoreCollector(source StatsSource) *StoreCollector {
	return &StoreCollector{
		source: source,
		items: prometheus.NewDesc(
			"todo_items",
			"Number of todos held by the store, by state",
			[]string{"state"}, nil,
		),
		lastID: prometheus.NewDesc(
			"todo_last_id",
			"Highest todo id issued so far",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.lastID
}

// Collect implements prometheus.Collector
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	st := c.source.Stats(ctx)
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(st.Total), "total")
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(st.Completed), "completed")
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(st.Active), "active")
	ch <- prometheus.MustNewConstMetric(c.lastID, prometheus.GaugeValue, float64(st.LastID))
}
