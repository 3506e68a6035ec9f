// health.go — обработчики health endpoints и метрик.
package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/goartstore/archive/internal/config"
)

const (
	statusOK       = "ok"
	statusFail     = "fail"
	statusDegraded = "degraded"
)

// ReconcileStatus — состояние фоновой сверки для readiness.
type ReconcileStatus interface {
	IsInProgress() bool
}

// HealthHandler реализует /health/live, /health/ready и /metrics.
type HealthHandler struct {
	version string
	// dataDir — директория JSON-документов
	dataDir string
	// uploadsDir — директория загруженных файлов
	uploadsDir string
	reconcile  ReconcileStatus
	metrics    http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// Пустая директория означает, что проверка не настроена.
func NewHealthHandler(dataDir, uploadsDir string, reconcile ReconcileStatus) *HealthHandler {
	return &HealthHandler{
		version:    config.Version,
		dataDir:    dataDir,
		uploadsDir: uploadsDir,
		reconcile:  reconcile,
		metrics:    promhttp.Handler(),
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Зависимости не проверяются.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    statusOK,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "archive",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Недоступная на запись директория данных или загрузок даёт 503.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overall := statusOK
	httpStatus := http.StatusOK

	dataCheck := checkWritableDir(h.dataDir, "Директория данных недоступна для записи: ")
	uploadsCheck := checkWritableDir(h.uploadsDir, "Директория загрузок недоступна для записи: ")
	if dataCheck["status"] != statusOK || uploadsCheck["status"] != statusOK {
		overall = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	checks := map[string]any{
		"data":    dataCheck,
		"uploads": uploadsCheck,
	}

	// Идущая сверка держит блокировку репозитория, запросы будут ждать
	if h.reconcile != nil {
		reconcileCheck := map[string]any{"status": statusOK}
		if h.reconcile.IsInProgress() {
			reconcileCheck = map[string]any{
				"status":  statusDegraded,
				"message": "Выполняется сверка",
			}
			if overall == statusOK {
				overall = statusDegraded
			}
		}
		checks["reconcile"] = reconcileCheck
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "archive",
		"checks":    checks,
	})
}

// GetMetrics отдаёт метрики Prometheus.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// checkWritableDir проверяет, что в директорию можно записать файл.
func checkWritableDir(dir, failPrefix string) map[string]any {
	if dir == "" {
		return map[string]any{
			"status":  statusOK,
			"message": "Проверка не настроена",
		}
	}

	testFile := filepath.Join(dir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": failPrefix + err.Error(),
		}
	}
	_ = os.Remove(testFile)

	return map[string]any{"status": statusOK}
}
