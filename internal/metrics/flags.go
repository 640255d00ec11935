// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	flagChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canplay_flag_changes_total",
		Help: "Feature flag writes by backend, flag and new value",
	}, []string{"backend", "flag", "value"})

	flagReadErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canplay_flag_read_errors_total",
		Help: "Flag reads that fell back to the default because the backend failed",
	}, []string{"backend"})

	flagReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canplay_flag_reloads_total",
		Help: "Flag file reloads by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

// RecordFlagChange records one successful flag write. Flag names come from
// the registry, so cardinality is bounded by the static tables.
func RecordFlagChange(backend, flag string, value bool) {
	flagChangesTotal.WithLabelValues(backend, flag, strconv.FormatBool(value)).Inc()
}

// RecordFlagReadError records a backend read failure.
func RecordFlagReadError(backend string) {
	flagReadErrorsTotal.WithLabelValues(backend).Inc()
}

// RecordFlagReload records a flag file reload attempt.
func RecordFlagReload(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	flagReloadsTotal.WithLabelValues(outcome).Inc()
}
