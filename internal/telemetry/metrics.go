package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests — количество HTTP запросов по маршруту и коду ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zakaz_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "code"})

	// StatusTransitions — принятые переходы статусов.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zakaz_status_transitions_total",
		Help: "Total number of accepted status transitions",
	}, []string{"entity", "status"})

	// AuditWriteFailures — неудачные синхронные записи в журнал аудита.
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zakaz_audit_write_failures_total",
		Help: "Total number of failed audit log inserts",
	})

	// HistoryWriteFailures — неудачные записи истории статусов.
	HistoryWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zakaz_history_write_failures_total",
		Help: "Total number of failed status history inserts",
	})

	// AuditReplayed — записи аудита, восстановленные из очереди повтора.
	AuditReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zakaz_audit_replayed_total",
		Help: "Total number of audit entries re-inserted from the retry queue",
	})

	// SchedulerJobRuns — запуски фоновых задач планировщика.
	SchedulerJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zakaz_scheduler_job_runs_total",
		Help: "Total number of scheduler job runs",
	}, []string{"job", "result"})
)

// MQDeliveries — обработанные сообщения RabbitMQ по очереди и исходу (ack, requeue, dead_letter).
var MQDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zakaz_mq_deliveries_total",
	Help: "Total number of consumed RabbitMQ deliveries by outcome",
}, []string{"queue", "result"})
