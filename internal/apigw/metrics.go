package apigw

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fjod/shopflow/internal/domain"
)

var (
	apiCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopflow_api_calls_total",
			Help: "Calls to the commerce API by outcome",
		},
		[]string{"method", "result"},
	)

	apiDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopflow_api_call_duration_ms",
			Help:    "Duration of commerce API calls in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3200},
		},
		[]string{"method"},
	)
)

func observe(method string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = domain.KindName(err)
	}
	apiCalls.WithLabelValues(method, result).Inc()
	apiDuration.WithLabelValues(method).Observe(float64(time.Since(start).Milliseconds()))
}
