package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "import",
		Name:      "records_total",
		Help:      "Source records seen by the importer, by outcome.",
	}, []string{"outcome"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Importer runs, by final status.",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "catalog",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Wall time of importer runs.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
