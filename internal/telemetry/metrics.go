package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal — завершённые runs по финальному статусу.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalk_runs_total",
		Help: "Total program runs finished by the worker, by final status",
	}, []string{"status"})

	// RunDuration — время выполнения программы (разбор + выполнение).
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kalk_run_duration_seconds",
		Help:    "Time spent parsing and executing a program",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	})

	// ProgramErrorsTotal — ошибки программ по классу: lexical, syntax, runtime.
	ProgramErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalk_program_errors_total",
		Help: "Program errors by kind",
	}, []string{"kind"})

	// OutputLinesTotal — строки, выведенные инструкцией SCRIE.
	OutputLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalk_output_lines_total",
		Help: "Total lines written by SCRIE across all runs",
	})

	// HTTPRequestsTotal — запросы к HTTP API.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalk_api_http_requests_total",
		Help: "Total HTTP requests handled by kalk-api",
	}, []string{"method", "code"})

	// SchedulesFiredTotal — runs, созданные планировщиком.
	SchedulesFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalk_schedules_fired_total",
		Help: "Total runs created by the scheduler",
	})
)

// ObserveRun записывает метрики одного выполнения программы.
// errorKind пуст для успешного выполнения.
func ObserveRun(status, errorKind string, outputLines int, elapsed time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(elapsed.Seconds())
	OutputLinesTotal.Add(float64(outputLines))
	if errorKind != "" {
		ProgramErrorsTotal.WithLabelValues(errorKind).Inc()
	}
}
