// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counterVec.WithLabelValues(labels...).Write(metric))
	return metric.GetCounter().GetValue()
}

func TestRecordVerdict_IncrementsCounter(t *testing.T) {
	initial := getCounterVecValue(t, verdictTotal, "matroska", "probably", "codecs_supported")

	RecordVerdict("matroska", "probably", "codecs_supported")

	actual := getCounterVecValue(t, verdictTotal, "matroska", "probably", "codecs_supported")
	assert.Equal(t, initial+1, actual)
}

func TestRecordVerdict_NormalizesLabels(t *testing.T) {
	initial := getCounterVecValue(t, verdictTotal, "none", "unsupported", "unknown")

	RecordVerdict("", "", "made_up")

	actual := getCounterVecValue(t, verdictTotal, "none", "unsupported", "unknown")
	assert.Equal(t, initial+1, actual)

	assert.Equal(t, "other", normalizeFamilyLabel("mp4"))
	assert.Equal(t, "maybe", normalizeVerdictLabel(" MAYBE "))
}

func TestRecordFlagChange(t *testing.T) {
	initial := getCounterVecValue(t, flagChangesTotal, "memory", "media.av1.enabled", "false")
	RecordFlagChange("memory", "media.av1.enabled", false)
	assert.Equal(t, initial+1, getCounterVecValue(t, flagChangesTotal, "memory", "media.av1.enabled", "false"))

	initialReload := getCounterVecValue(t, flagReloadsTotal, "failure")
	RecordFlagReload(false)
	assert.Equal(t, initialReload+1, getCounterVecValue(t, flagReloadsTotal, "failure"))
}

func TestCacheCollector(t *testing.T) {
	c := NewCacheCollector(func() CacheStats { return CacheStats{Hits: 3, Misses: 1, Size: 2} })
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	n, err := testutil.GatherAndCount(reg, "canplay_query_cache_hits_total", "canplay_query_cache_entries")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	expected := `
# HELP canplay_query_cache_hits_total Parsed query cache hits
# TYPE canplay_query_cache_hits_total counter
canplay_query_cache_hits_total 3
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "canplay_query_cache_hits_total"))
}
