package solr

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gosolr",
			Name:      "requests_total",
			Help:      "Requests that received a response, by method and status.",
		},
		[]string{"method", "status"},
	)

	transportFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gosolr",
			Name:      "transport_failures_total",
			Help:      "Requests that failed before a response arrived.",
		},
		[]string{"kind"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gosolr",
			Name:      "request_duration_seconds",
			Help:      "Wall time from request start to full body read.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func statusLabel(code int) string { return strconv.Itoa(code) }
