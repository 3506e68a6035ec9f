package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики архива.
var (
	// operationsTotal — изменения архива по операции и результату.
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_operations_total",
		Help: "Общее количество операций изменения архива",
	}, []string{"operation", "result"})

	// itemsTotal — число записей после последнего сохранения.
	itemsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archive_items_total",
		Help: "Текущее количество записей в архиве",
	})

	// categoriesTotal — число путей в реестре после последнего сохранения.
	categoriesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archive_categories_total",
		Help: "Текущее количество путей в реестре категорий",
	})

	treeCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_tree_cache_hits_total",
		Help: "Общее количество попаданий в кэш дерева категорий",
	})
	treeCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_tree_cache_misses_total",
		Help: "Общее количество промахов кэша дерева категорий",
	})

	reconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_reconcile_runs_total",
		Help: "Общее количество запусков сверки",
	})

	// reconcileIssuesTotal — обнаруженные проблемы по типу.
	reconcileIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_reconcile_issues_total",
		Help: "Общее количество проблем, обнаруженных сверкой",
	}, []string{"type"})

	reconcileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archive_reconcile_duration_seconds",
		Help:    "Длительность сверки в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// observe учитывает результат операции в archive_operations_total.
func observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
}
