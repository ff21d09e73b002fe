package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shopflow_order_submissions_total",
		Help: "Order submissions by outcome",
	},
	[]string{"outcome"},
)
