package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orgChartRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "source",
		Name:      "refresh_total",
		Help:      "Employee source refreshes broken down by result (ok, error, stale).",
	}, []string{"result"})

	orgChartRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "orgchart",
		Subsystem: "source",
		Name:      "records",
		Help:      "Records in the current employee snapshot.",
	})

	orgChartBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "orgchart",
		Subsystem: "chart",
		Name:      "build_duration_seconds",
		Help:      "Time to build and lay out a chart.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"direction"})

	orgChartVisibleNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "orgchart",
		Subsystem: "chart",
		Name:      "visible_nodes",
		Help:      "Visible nodes per built chart.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	orgChartActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "session",
		Name:      "actions_total",
		Help:      "Expansion actions applied, broken down by action and result.",
	}, []string{"action", "result"})
)

func recordRefresh(result string) {
	orgChartRefreshes.WithLabelValues(result).Inc()
}

func recordBuild(dir Direction, visible int, started time.Time) {
	orgChartBuildDuration.WithLabelValues(string(dir)).Observe(time.Since(started).Seconds())
	orgChartVisibleNodes.Observe(float64(visible))
}

func recordAction(action ActionType, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	orgChartActions.WithLabelValues(string(action), result).Inc()
}
