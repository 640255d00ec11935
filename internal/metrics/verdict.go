// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics exposes Prometheus instrumentation for capability queries
// and flag stores.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verdictTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canplay_verdict_total",
		Help: "Total number of capability queries by container family, verdict and reason",
	}, []string{"family", "verdict", "reason"})

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "canplay_batch_size",
		Help:    "Number of MIME types per batch query",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})
)

// RecordVerdict records one resolved query.
func RecordVerdict(family, verdict, reason string) {
	verdictTotal.WithLabelValues(
		normalizeFamilyLabel(family),
		normalizeVerdictLabel(verdict),
		normalizeReasonLabel(reason),
	).Inc()
}

// ObserveBatch records the size of one batch query.
func ObserveBatch(n int) {
	batchSize.Observe(float64(n))
}

// Unknown containers carry no family; keep the label set bounded.
func normalizeFamilyLabel(family string) string {
	switch f := strings.ToLower(strings.TrimSpace(family)); f {
	case "":
		return "none"
	case "matroska":
		return f
	default:
		return "other"
	}
}

func normalizeVerdictLabel(verdict string) string {
	switch v := strings.ToLower(strings.TrimSpace(verdict)); v {
	case "probably", "maybe":
		return v
	default:
		return "unsupported"
	}
}

func normalizeReasonLabel(reason string) string {
	switch r := strings.ToLower(strings.TrimSpace(reason)); r {
	case "container_unknown", "container_disabled", "no_codecs", "codec_unknown",
		"codec_disabled", "codecs_supported":
		return r
	default:
		return "unknown"
	}
}
