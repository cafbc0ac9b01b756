package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lookup metrics
var (
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookups_total",
			Help: "Total number of movie lookups by outcome.",
		},
		[]string{"status"},
	)

	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lookup_duration_seconds",
			Help:    "Time spent running the full lookup pipeline.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"status"},
	)

	CaptionsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lookup_captions_returned",
			Help:    "Number of captions left after language filtering.",
			Buckets: prometheus.LinearBuckets(0, 1, 6),
		},
	)
)

// Browser metrics
var (
	BrowserSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "browser_sessions_active",
			Help: "Number of browser sessions currently open.",
		},
	)

	BrowserLaunchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_launches_total",
			Help: "Total number of browser launches by outcome.",
		},
		[]string{"status"},
	)
)

// Download API metrics
var (
	DownstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downstream_requests_total",
			Help: "Total number of download API requests by outcome.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		LookupsTotal,
		LookupDuration,
		CaptionsReturned,
		BrowserSessionsActive,
		BrowserLaunchesTotal,
		DownstreamRequestsTotal,
	)
}
