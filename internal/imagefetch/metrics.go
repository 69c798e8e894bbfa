package imagefetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "image",
		Name:      "fetch_total",
		Help:      "Image fetch attempts, by outcome.",
	}, []string{"outcome"})

	fetchedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "image",
		Name:      "fetched_bytes_total",
		Help:      "Bytes written to the blob store.",
	})
)
