package openapi

import (
	"time"

	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// --- Запросы ---

// LoginRequest — тело POST /api/v1/auth/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// MoveItemRequest — тело POST /api/v1/items/{id}/move.
type MoveItemRequest struct {
	Category *string `json:"category"`
}

// AddCategoryRequest — тело POST /api/v1/categories.
// Задаётся либо Path, либо Parent и Name.
type AddCategoryRequest struct {
	Path   *string `json:"path,omitempty"`
	Parent *string `json:"parent,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// RenameCategoryRequest — тело POST /api/v1/categories/rename.
type RenameCategoryRequest struct {
	Path    string `json:"path"`
	NewName string `json:"newName"`
}

// MoveCategoryRequest — тело POST /api/v1/categories/move.
type MoveCategoryRequest struct {
	Path      string `json:"path"`
	NewParent string `json:"newParent"`
}

// ReorderRequest — тело POST /api/v1/categories/reorder.
type ReorderRequest struct {
	Order     []string `json:"order,omitempty"`
	Path      string   `json:"path"`
	Direction string   `json:"direction"`
}

// CategoryList — список путей категорий (ответ GET и тело PUT order).
type CategoryList struct {
	Paths []string `json:"paths"`
}

// DeletionRequest — тело POST /api/v1/categories/delete.
type DeletionRequest struct {
	Path      string  `json:"path"`
	MigrateTo *string `json:"migrateTo,omitempty"`
}

// PersonRequest — тело POST/PUT /api/v1/people/....
type PersonRequest struct {
	Name string `json:"name"`
}

// --- Ответы ---

// MessageResponse — локализованное сообщение об успехе.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse — результат входа.
type LoginResponse struct {
	Authorized bool       `json:"authorized"`
	Message    string     `json:"message"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// SessionState — состояние текущей сессии.
type SessionState struct {
	Authorized bool       `json:"authorized"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// ItemList — страница записей.
type ItemList struct {
	Items []model.ArchiveItem `json:"items"`
	Total int                 `json:"total"`
}

// TagList — теги записей.
type TagList struct {
	Tags []string `json:"tags"`
}

// ItemResponse — запись и сообщение.
type ItemResponse struct {
	Item    *model.ArchiveItem `json:"item"`
	Message string             `json:"message"`
}

// PathResponse — итоговый путь категории и сообщение.
type PathResponse struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// MoveCategoryResponse — результат переноса поддерева.
type MoveCategoryResponse struct {
	Path            string `json:"path"`
	MovedItems      int    `json:"movedItems"`
	MovedCategories int    `json:"movedCategories"`
	Message         string `json:"message"`
}

// ReorderResponse — предпросмотр порядка.
type ReorderResponse struct {
	Paths []string `json:"paths"`
	Moved bool     `json:"moved"`
}

// DeletionResponse — результат удаления категории.
type DeletionResponse struct {
	Moved   int    `json:"moved"`
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// PersonResponse — запись списка и сообщение.
type PersonResponse struct {
	Person  *model.Person `json:"person"`
	Message string        `json:"message"`
}

// --- Параметры ---

// ItemId — идентификатор записи в пути.
type ItemId = string

// PersonKind — вид списка в пути (memorial, healing).
type PersonKind = string

// ListItemsParams — query-параметры GET /api/v1/items.
type ListItemsParams struct {
	Category *string `form:"category,omitempty" json:"category,omitempty"`
	Subtree  *bool   `form:"subtree,omitempty" json:"subtree,omitempty"`
	Tag      *string `form:"tag,omitempty" json:"tag,omitempty"`
	Type     *string `form:"type,omitempty" json:"type,omitempty"`
	Search   *string `form:"search,omitempty" json:"search,omitempty"`
	Sort     *string `form:"sort,omitempty" json:"sort,omitempty"`
	Limit    *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Offset   *int    `form:"offset,omitempty" json:"offset,omitempty"`
}

// ListTagsParams — query-параметры GET /api/v1/items/tags.
type ListTagsParams struct {
	Category *string `form:"category,omitempty" json:"category,omitempty"`
	Subtree  *bool   `form:"subtree,omitempty" json:"subtree,omitempty"`
}

// DeleteCategoryParams — query-параметры DELETE /api/v1/categories.
type DeleteCategoryParams struct {
	Path string `form:"path" json:"path"`
}
