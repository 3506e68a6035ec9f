// maintenance.go — ручной запуск сверки.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/goartstore/archive/internal/api/errors"
	"github.com/bigkaa/goartstore/archive/internal/service"
)

// reconcileResponse — отчёт сверки с сообщением.
type reconcileResponse struct {
	*service.ReconcileReport
	Message string `json:"message"`
}

// RunReconcile — POST /api/v1/maintenance/reconcile.
// Параллельный запуск отклоняется с 409.
func (h *APIHandler) RunReconcile(w http.ResponseWriter, r *http.Request) {
	report, skipped := h.reconcile.RunOnce(r.Context())
	if skipped {
		apierrors.Conflict(w, h.msg.T(r.Context(), "reconcile.in_progress"))
		return
	}
	writeJSON(w, http.StatusOK, reconcileResponse{
		ReconcileReport: report,
		Message:         h.msg.T(r.Context(), "reconcile.done", len(report.Issues)),
	})
}
