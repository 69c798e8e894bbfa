package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var relayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "catalog",
	Subsystem: "outbox",
	Name:      "relayed_total",
	Help:      "Outbox messages handed to the broker, by topic and outcome.",
}, []string{"topic", "outcome"})
