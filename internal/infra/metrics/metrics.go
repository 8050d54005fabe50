package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60, 120},
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "status"})

	GatewayRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Повторы запросов после 429",
	})

	GatewayMemoFastFails = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_memo_fast_fails_total",
		Help: "Отказы без обращения к сети по памяти недавних ошибок",
	})

	GatewayQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_queue_depth",
		Help: "Текущая глубина очереди шлюза",
	})

	TimelineFetchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_fetch_seconds",
		Help:    "Время полной выгрузки ленты автора",
		Buckets: prometheus.DefBuckets,
	})

	TimelinePostsFetched = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_posts_fetched",
		Help:    "Размер корпуса постов после выгрузки",
		Buckets: []float64{10, 25, 50, 100, 150, 200, 300},
	})

	ThreadsGrouped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "threads_grouped_total",
		Help: "Количество собранных тредов",
	})

	PostsSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_saved_total",
		Help: "Количество сохранённых постов",
	})

	PostsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_skipped_total",
		Help: "Количество пропущенных дубликатов при сохранении",
	})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		GatewayRetriesTotal,
		GatewayMemoFastFails,
		GatewayQueueDepth,
		TimelineFetchSeconds,
		TimelinePostsFetched,
		ThreadsGrouped,
		PostsSavedTotal,
		PostsSkippedTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}
