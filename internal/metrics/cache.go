// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheStats is the counter snapshot exported for the query cache.
type CacheStats struct {
	Hits, Misses, Evictions int64
	Size                    int
}

type cacheCollector struct {
	stats func() CacheStats

	hits, misses, evictions, size *prometheus.Desc
}

// NewCacheCollector exports query cache statistics. Register it once with
// the registry serving /metrics.
func NewCacheCollector(stats func() CacheStats) prometheus.Collector {
	return &cacheCollector{
		stats:     stats,
		hits:      prometheus.NewDesc("canplay_query_cache_hits_total", "Parsed query cache hits", nil, nil),
		misses:    prometheus.NewDesc("canplay_query_cache_misses_total", "Parsed query cache misses", nil, nil),
		evictions: prometheus.NewDesc("canplay_query_cache_evictions_total", "Parsed query cache evictions", nil, nil),
		size:      prometheus.NewDesc("canplay_query_cache_entries", "Parsed query cache entries", nil, nil),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.size
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
}
