package capture

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CapturedErrors counts captured errors by category and source
	CapturedErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_captured_errors_total",
			Help: "Total number of errors recorded by the capture hub",
		},
		[]string{"category", "source"},
	)

	// CapturedMessages counts captured messages by level and source
	CapturedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_captured_messages_total",
			Help: "Total number of messages recorded by the capture hub",
		},
		[]string{"level", "source"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(CapturedErrors)
	prometheus.MustRegister(CapturedMessages)
}
