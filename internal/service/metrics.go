package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart operations forwarded to the backend, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	comparisons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparisons_total",
			Help: "Comparison requests sent to the backend, by outcome",
		},
		[]string{"outcome"},
	)

	comparisonSubstitutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_substitutions_total",
			Help: "Local alternative substitutions, by outcome",
		},
		[]string{"outcome"},
	)

	sessionCacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_cache_invalidations_total",
			Help: "Session comparison caches dropped, by reason",
		},
		[]string{"reason"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
