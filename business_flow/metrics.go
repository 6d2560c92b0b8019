package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sequence allocations partitioned by counter name and outcome
var sequenceAllocations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sequence_allocations_total",
		Help: "Total number of sequence values requested, by outcome",
	},
	[]string{"sequence", "result"},
)
