package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics shared by the screener, analyzer and task scheduler.

var (
	ScreensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_runs_total",
			Help: "Total number of screening runs",
		},
	)

	ScreenDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "screener_run_duration_seconds",
			Help: "Duration of screening runs in seconds",
		},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_analyses_total",
			Help: "Total number of instrument analyses by recommendation band",
		},
		[]string{"recommendation"},
	)

	RuleEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_rule_evaluations_total",
			Help: "Total number of scoring-rule evaluations",
		},
		[]string{"rule_id", "outcome"},
	)

	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_tasks_total",
			Help: "Total number of analysis tasks by terminal status",
		},
		[]string{"status"},
	)

	TaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "scheduler_task_duration_seconds",
			Help: "Wall-clock duration of analysis tasks in seconds",
		},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "endpoint", "status"},
	)
)
