package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DataReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "terrenospy", Name: "data_reads_total", Help: "Number of GET /api/data requests by outcome."},
		[]string{"status"},
	)
	DataWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "terrenospy", Name: "data_writes_total", Help: "Number of PUT /api/data requests by outcome."},
		[]string{"status"},
	)
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "terrenospy", Name: "media_uploads_total", Help: "Number of media uploads by backend and outcome."},
		[]string{"backend", "status"},
	)
	RemotePushFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "terrenospy", Name: "remote_push_failures_total", Help: "Number of best-effort document pushes that failed."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "terrenospy", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "terrenospy", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DataReads)
	reg.MustRegister(DataWrites)
	reg.MustRegister(MediaUploads)
	reg.MustRegister(RemotePushFailures)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
