package pat

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 処理結果のラベル値。
const (
	outcomeMethodNotAllowed = "method_not_allowed"
	outcomeInvalidRequest   = "invalid_request"
	outcomeDenied           = "denied"
	outcomeUpstreamDenied   = "upstream_denied"
	outcomeUpstreamError    = "upstream_error"
	outcomeIssued           = "issued"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tooljet_pat_requests_total",
		Help: "Total number of PAT generation requests by outcome.",
	}, []string{"outcome"})
	upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tooljet_pat_upstream_duration_seconds",
		Help:    "Tracks the duration of ToolJet PAT issuance calls.",
		Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}, // max = default timeout
	}, []string{"status_code"})
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(upstreamDuration)
}
