package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	TasksStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraping_tasks_started_total",
			Help: "Scraping tasks started, by job kind.",
		},
		[]string{"kind"},
	)

	TasksFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraping_tasks_finished_total",
			Help: "Scraping tasks that reached a terminal status.",
		},
		[]string{"kind", "status"}, // status: completed, failed, cancelled
	)

	TasksRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraping_tasks_running",
			Help: "Scraping tasks currently executing in this process.",
		},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraping_task_duration_seconds",
			Help:    "Wall time of scraping tasks.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheets_sync_runs_total",
			Help: "Google Sheets sync runs, by direction and outcome.",
		},
		[]string{"direction", "success"},
	)
)
