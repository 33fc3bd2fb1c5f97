package commit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// contextsTotal counts finalized contexts by phase and outcome
	contextsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "causetrack_contexts_total",
		Help: "Finalized phase contexts by phase and outcome",
	}, []string{"phase", "outcome"})

	// recordsTotal counts records by category and what happened to them
	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "causetrack_records_total",
		Help: "Side-effect records by category and result",
	}, []string{"category", "result"})

	// batchSize tracks how many records a single commit handled
	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "causetrack_commit_records",
		Help:    "Records handled per committed context",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
	})
)

const (
	resultApplied     = "applied"
	resultElided      = "elided"
	resultFailed      = "failed"
	resultDiscarded   = "discarded"
	resultMerged      = "merged"
	resultPassthrough = "passthrough"
	resultDropped     = "dropped"
)
