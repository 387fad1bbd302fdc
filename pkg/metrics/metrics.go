package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slow_query_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"operation"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	ActivityRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_recorded_total",
			Help: "Total number of activity records appended",
		},
		[]string{"action_type"},
	)

	// 审计日志写入失败（不影响主操作）
	ActivityLogFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_log_failures_total",
			Help: "Total number of activity records that could not be appended",
		},
		[]string{"action_type"},
	)

	TaskReorderCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_reorder_total",
			Help: "Total number of task ordering operations",
		},
		[]string{"kind", "result"}, // kind: reorder, move
	)

	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Outbox events handed to the broker",
		},
		[]string{"routing_key", "result"}, // result: ok, error
	)

	DashboardCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_requests_total",
			Help: "Dashboard statistics cache lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func IncrementSlowQuery(operation string) {
	SlowQueryCount.WithLabelValues(operation).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementActivityRecorded(actionType string) {
	ActivityRecorded.WithLabelValues(actionType).Inc()
}

func IncrementActivityLogFailure(actionType string) {
	ActivityLogFailures.WithLabelValues(actionType).Inc()
}

func IncrementTaskReorder(kind, result string) {
	TaskReorderCount.WithLabelValues(kind, result).Inc()
}

func IncrementDashboardCache(result string) {
	DashboardCacheRequests.WithLabelValues(result).Inc()
}

func IncrementOutboxPublish(routingKey string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OutboxPublished.WithLabelValues(routingKey, result).Inc()
}
