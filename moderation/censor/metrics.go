package censor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var censorChecks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "censor_checks_total",
	Help: "Number of texts scanned for banned terms",
})

var censorHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "censor_hits_total",
	Help: "Number of banned term matches, by dictionary term",
}, []string{"term"})
