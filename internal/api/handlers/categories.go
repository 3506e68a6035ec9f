// categories.go — обработчики /api/v1/categories.
package handlers

import (
	"fmt"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/archive/internal/api/errors"
	"github.com/bigkaa/goartstore/archive/internal/api/openapi"
	"github.com/bigkaa/goartstore/archive/internal/domain/category"
	"github.com/bigkaa/goartstore/archive/internal/service"
)

// ListCategories — GET /api/v1/categories.
func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, openapi.CategoryList{Paths: h.categories.List(r.Context())})
}

// GetCategoryTree — GET /api/v1/categories/tree.
func (h *APIHandler) GetCategoryTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tree.Tree(r.Context()))
}

// AddCategory — POST /api/v1/categories.
// {path} регистрирует полный путь, {parent, name} — новый дочерний сегмент.
// Уже известный путь — 409.
func (h *APIHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req openapi.AddCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var path string
	switch {
	case req.Path != nil && (req.Parent != nil || req.Name != nil):
		apierrors.ValidationError(w, "Укажите либо path, либо parent и name")
		return
	case req.Path != nil:
		path = category.Normalize(*req.Path)
		added, err := h.categories.Add(r.Context(), path)
		if err != nil {
			h.serviceError(w, r, "add_category", err)
			return
		}
		if !added {
			apierrors.Conflict(w, h.msg.T(r.Context(), "category.exists", path))
			return
		}
	case req.Name != nil:
		parent := ""
		if req.Parent != nil {
			parent = *req.Parent
		}
		var err error
		path, err = h.categories.Create(r.Context(), parent, *req.Name)
		if err != nil {
			h.serviceError(w, r, "add_category", err)
			return
		}
	default:
		apierrors.ValidationError(w, "Поле path или name обязательно")
		return
	}

	writeJSON(w, http.StatusCreated, openapi.PathResponse{
		Path:    path,
		Message: h.msg.T(r.Context(), "category.added", path),
	})
}

// DeleteCategory — DELETE /api/v1/categories?path=. Только пустые категории.
func (h *APIHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, params openapi.DeleteCategoryParams) {
	if err := h.categories.DeleteEmpty(r.Context(), params.Path); err != nil {
		h.serviceError(w, r, "delete_category", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.MessageResponse{
		Message: h.msg.T(r.Context(), "category.deleted", category.Normalize(params.Path)),
	})
}

// RenameCategory — POST /api/v1/categories/rename.
func (h *APIHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	var req openapi.RenameCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	newPath, err := h.categories.Rename(r.Context(), req.Path, req.NewName)
	if err != nil {
		h.serviceError(w, r, "rename_category", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.PathResponse{
		Path:    newPath,
		Message: h.msg.T(r.Context(), "category.renamed", newPath),
	})
}

// MoveCategory — POST /api/v1/categories/move.
func (h *APIHandler) MoveCategory(w http.ResponseWriter, r *http.Request) {
	var req openapi.MoveCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.categories.Move(r.Context(), req.Path, req.NewParent)
	if err != nil {
		h.serviceError(w, r, "move_category", err)
		return
	}
	newPath := category.Join(category.Normalize(req.NewParent), category.LastSegment(category.Normalize(req.Path)))
	writeJSON(w, http.StatusOK, openapi.MoveCategoryResponse{
		Path:            newPath,
		MovedItems:      res.MovedItems,
		MovedCategories: res.MovedCategories,
		Message:         h.msg.T(r.Context(), "category.moved", newPath, res.MovedItems, res.MovedCategories),
	})
}

// ReorderCategories — POST /api/v1/categories/reorder. Только предпросмотр.
func (h *APIHandler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req openapi.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	paths, moved, err := h.categories.Reorder(r.Context(), req.Order, req.Path, req.Direction)
	if err != nil {
		h.serviceError(w, r, "reorder_categories", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.ReorderResponse{Paths: paths, Moved: moved})
}

// UpdateCategoryOrder — PUT /api/v1/categories/order.
func (h *APIHandler) UpdateCategoryOrder(w http.ResponseWriter, r *http.Request) {
	var req openapi.CategoryList
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Paths == nil {
		apierrors.ValidationError(w, "Поле paths обязательно")
		return
	}
	if h.categories.Policy() != category.OrderExplicit {
		apierrors.ValidationError(w, fmt.Sprintf("Порядок категорий задаётся политикой %q", h.categories.Policy()))
		return
	}

	if err := h.categories.CommitOrder(r.Context(), req.Paths); err != nil {
		h.serviceError(w, r, "update_category_order", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.MessageResponse{Message: h.msg.T(r.Context(), "category.order_updated")})
}

// HandleCategoryDeletion — POST /api/v1/categories/delete.
// migrateTo задан — записи поддерева переносятся, иначе удаляются вместе с файлами.
func (h *APIHandler) HandleCategoryDeletion(w http.ResponseWriter, r *http.Request) {
	var req openapi.DeletionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.categories.HandleDeletion(r.Context(), req.Path, req.MigrateTo)
	if err != nil {
		h.serviceError(w, r, "handle_category_deletion", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.DeletionResponse{
		Moved:   res.Moved,
		Deleted: res.Deleted,
		Message: deletionMessage(h, r, res),
	})
}

func deletionMessage(h *APIHandler, r *http.Request, res service.DeletionResult) string {
	if res.Deleted > 0 {
		return h.msg.T(r.Context(), "category.items_deleted", res.Deleted)
	}
	return h.msg.T(r.Context(), "category.items_moved", res.Moved)
}
