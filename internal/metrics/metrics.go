// Package metrics provides Prometheus metrics for miniflux_ai.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "miniflux_ai"

var (
	// EntriesTotal 按结果统计处理过的文章数 (processed / failed)
	EntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Total number of entries handled by the batch engine",
		},
		[]string{"source", "status"},
	)

	// GenerationsTotal 按结果统计 LLM 调用次数
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generation calls",
		},
		[]string{"status"},
	)

	// GenerationDuration LLM 调用耗时
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of generation calls in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	// RateWaitDuration 等待限流窗口的时间
	RateWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_wait_seconds",
			Help:      "Time spent blocked on the generation rate window",
			Buckets:   []float64{0, 0.1, 1, 5, 15, 30, 60},
		},
	)

	// DigestsTotal 已生成的每日新闻次数
	DigestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digests_total",
			Help:      "Total number of digest compositions",
		},
		[]string{"status"},
	)
)

// Handler 返回 /metrics 的 HTTP 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
