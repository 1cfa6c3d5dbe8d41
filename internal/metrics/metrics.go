// Package metrics exposes Prometheus instruments for the ledger service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExpenseMutations counts expense mutations by operation
	// (create, update, delete). Only successful mutations are counted.
	ExpenseMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groupledger_expense_mutations_total",
		Help: "Number of committed expense mutations by operation.",
	}, []string{"operation"})

	// RecomputeDuration tracks how long a full balance recompute takes.
	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "groupledger_balance_recompute_seconds",
		Help:    "Duration of full group balance recomputes.",
		Buckets: prometheus.DefBuckets,
	})
)
