// handler.go — основной обработчик API, реализующий openapi.ServerInterface.
// Разбирает тела запросов и делегирует в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/archive/internal/api/errors"
	"github.com/bigkaa/goartstore/archive/internal/api/openapi"
	"github.com/bigkaa/goartstore/archive/internal/auth"
	"github.com/bigkaa/goartstore/archive/internal/i18n"
	"github.com/bigkaa/goartstore/archive/internal/service"
)

// maxJSONBody — лимит тела JSON-запросов.
const maxJSONBody = 1 << 20

// Deps — зависимости APIHandler.
type Deps struct {
	Items      *service.ItemService
	Categories *service.CategoryService
	Tree       *service.TreeService
	People     *service.PeopleService
	Reconcile  *service.ReconcileService
	Gate       *auth.Gate
	Messages   *i18n.Bundle
	Health     *HealthHandler
	// MaxUploadSize — лимит одного файла; тело multipart ограничивается с запасом.
	MaxUploadSize int64
}

// APIHandler — обработчик API архива.
type APIHandler struct {
	items         *service.ItemService
	categories    *service.CategoryService
	tree          *service.TreeService
	people        *service.PeopleService
	reconcile     *service.ReconcileService
	gate          *auth.Gate
	msg           *i18n.Bundle
	health        *HealthHandler
	maxUploadSize int64
	logger        *slog.Logger
}

var _ openapi.ServerInterface = (*APIHandler)(nil)

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(deps Deps, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		items:         deps.Items,
		categories:    deps.Categories,
		tree:          deps.Tree,
		people:        deps.People,
		reconcile:     deps.Reconcile,
		gate:          deps.Gate,
		msg:           deps.Messages,
		health:        deps.Health,
		maxUploadSize: deps.MaxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPI — встроенный OpenAPI-документ.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	openapi.ServeSpec(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса. При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			apierrors.ValidationError(w, "Пустое тело запроса")
			return false
		}
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// serviceError переводит ошибку сервисного слоя в HTTP-ответ.
// op — имя операции для лога.
func (h *APIHandler) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrTooLarge):
		apierrors.FileTooLarge(w, err.Error())
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrInvalidOperation):
		apierrors.InvalidOperation(w, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrStorage):
		h.logger.ErrorContext(r.Context(), "Ошибка хранилища",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		apierrors.StorageFailure(w, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Внутренняя ошибка",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// ensureCategory регистрирует категорию записи. Запись уже сохранена,
// поэтому ошибка только логируется: сверка зарегистрирует путь позже.
func (h *APIHandler) ensureCategory(r *http.Request, path string) {
	if err := h.categories.Ensure(r.Context(), path); err != nil {
		h.logger.WarnContext(r.Context(), "Не удалось зарегистрировать категорию записи",
			slog.String("category", path),
			slog.String("error", err.Error()),
		)
	}
}
