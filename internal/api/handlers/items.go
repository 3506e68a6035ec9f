// items.go — обработчики /api/v1/items.
// Создание и изменение принимают multipart/form-data: поля записи, file и coverImage.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/bigkaa/goartstore/archive/internal/api/errors"
	"github.com/bigkaa/goartstore/archive/internal/api/openapi"
	"github.com/bigkaa/goartstore/archive/internal/service"
)

// multipartMemory — часть формы, которая держится в памяти; остальное во временных файлах.
const multipartMemory = 8 << 20

// ListItems — GET /api/v1/items.
func (h *APIHandler) ListItems(w http.ResponseWriter, r *http.Request, params openapi.ListItemsParams) {
	f := service.ItemFilter{Category: params.Category}
	if params.Subtree != nil {
		f.Subtree = *params.Subtree
	}
	if params.Tag != nil {
		f.Tag = *params.Tag
	}
	if params.Type != nil {
		f.Type = *params.Type
	}
	if params.Search != nil {
		f.Search = *params.Search
	}
	if params.Sort != nil {
		f.Sort = *params.Sort
	}
	if params.Limit != nil {
		f.Limit = *params.Limit
	}
	if params.Offset != nil {
		f.Offset = *params.Offset
	}

	items, total, err := h.items.Query(r.Context(), f)
	if err != nil {
		h.serviceError(w, r, "list_items", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.ItemList{Items: items, Total: total})
}

// ListTags — GET /api/v1/items/tags.
func (h *APIHandler) ListTags(w http.ResponseWriter, r *http.Request, params openapi.ListTagsParams) {
	subtree := params.Subtree != nil && *params.Subtree
	writeJSON(w, http.StatusOK, openapi.TagList{Tags: h.items.Tags(r.Context(), params.Category, subtree)})
}

// GetItem — GET /api/v1/items/{id}.
func (h *APIHandler) GetItem(w http.ResponseWriter, r *http.Request, id openapi.ItemId) {
	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, "get_item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CreateItem — POST /api/v1/items.
func (h *APIHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer form.cleanup()

	p := service.CreateParams{
		Title:       form.value("title"),
		Description: form.value("description"),
		Type:        form.value("type"),
		Category:    form.optional("category"),
		Tags:        service.SplitTags(form.value("tags")),
		Content:     form.optional("content"),
	}
	var err error
	if p.File, err = form.file("file"); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if p.CoverImage, err = form.file("coverImage"); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	item, err := h.items.Create(r.Context(), p)
	if err != nil {
		h.serviceError(w, r, "create_item", err)
		return
	}
	h.ensureCategory(r, item.Category)

	writeJSON(w, http.StatusCreated, openapi.ItemResponse{
		Item:    item,
		Message: h.msg.T(r.Context(), "item.created", item.Title),
	})
}

// UpdateItem — PUT /api/v1/items/{id}. Меняются только переданные поля.
func (h *APIHandler) UpdateItem(w http.ResponseWriter, r *http.Request, id openapi.ItemId) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer form.cleanup()

	p := service.UpdateParams{
		Title:       form.optional("title"),
		Description: form.optional("description"),
		Type:        form.optional("type"),
		Category:    form.optional("category"),
		Content:     form.optional("content"),
	}
	if raw := form.optional("tags"); raw != nil {
		tags := service.SplitTags(*raw)
		p.Tags = &tags
	}
	if raw := form.optional("removeCoverImage"); raw != nil {
		remove, err := strconv.ParseBool(*raw)
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("removeCoverImage: некорректное значение %q", *raw))
			return
		}
		p.RemoveCoverImage = remove
	}
	var err error
	if p.File, err = form.file("file"); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if p.CoverImage, err = form.file("coverImage"); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	item, err := h.items.Update(r.Context(), id, p)
	if err != nil {
		h.serviceError(w, r, "update_item", err)
		return
	}
	if p.Category != nil {
		h.ensureCategory(r, item.Category)
	}

	writeJSON(w, http.StatusOK, openapi.ItemResponse{
		Item:    item,
		Message: h.msg.T(r.Context(), "item.updated", item.Title),
	})
}

// MoveItem — POST /api/v1/items/{id}/move.
func (h *APIHandler) MoveItem(w http.ResponseWriter, r *http.Request, id openapi.ItemId) {
	var req openapi.MoveItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Category == nil {
		apierrors.ValidationError(w, "Поле category обязательно")
		return
	}

	item, err := h.items.Move(r.Context(), id, *req.Category)
	if err != nil {
		h.serviceError(w, r, "move_item", err)
		return
	}
	h.ensureCategory(r, item.Category)

	writeJSON(w, http.StatusOK, openapi.ItemResponse{
		Item:    item,
		Message: h.msg.T(r.Context(), "item.moved", item.Title),
	})
}

// DeleteItem — DELETE /api/v1/items/{id}.
func (h *APIHandler) DeleteItem(w http.ResponseWriter, r *http.Request, id openapi.ItemId) {
	if err := h.items.Delete(r.Context(), id); err != nil {
		h.serviceError(w, r, "delete_item", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.MessageResponse{Message: h.msg.T(r.Context(), "item.deleted")})
}

// --- Разбор формы ---

// itemForm — разобранная форма записи.
type itemForm struct {
	r     *http.Request
	files []multipart.File
}

// parseForm разбирает multipart/form-data или application/x-www-form-urlencoded.
// Тело ограничено двумя файлами по лимиту плюс запас на поля.
func (h *APIHandler) parseForm(w http.ResponseWriter, r *http.Request) (*itemForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUploadSize+multipartMemory)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.FileTooLarge(w, fmt.Sprintf("Тело запроса превышает %d байт", tooLarge.Limit))
			return nil, false
		}
		apierrors.ValidationError(w, "Некорректная форма: "+err.Error())
		return nil, false
	}
	return &itemForm{r: r}, true
}

// value возвращает значение поля или "".
func (f *itemForm) value(key string) string {
	return f.r.PostForm.Get(key)
}

// optional возвращает nil, если поле не передано.
func (f *itemForm) optional(key string) *string {
	vals, ok := f.r.PostForm[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// file возвращает загруженный файл поля или nil.
// Пустая часть (браузер без выбранного файла) считается отсутствующей.
func (f *itemForm) file(key string) (*service.FileUpload, error) {
	if f.r.MultipartForm == nil {
		return nil, nil
	}
	headers := f.r.MultipartForm.File[key]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > 1 {
		return nil, fmt.Errorf("поле %s: ожидается один файл, получено %d", key, len(headers))
	}
	// Пустой файл считается отсутствующим
	fh := headers[0]
	if fh.Size == 0 {
		return nil, nil
	}
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("поле %s: %w", key, err)
	}
	f.files = append(f.files, file)
	return &service.FileUpload{Name: fh.Filename, Reader: file}, nil
}

// cleanup закрывает файлы и удаляет временные файлы multipart.
func (f *itemForm) cleanup() {
	for _, file := range f.files {
		_ = file.Close()
	}
	if f.r.MultipartForm != nil {
		if err := f.r.MultipartForm.RemoveAll(); err != nil {
			slog.Debug("Не удалось удалить временные файлы формы", slog.String("error", err.Error()))
		}
	}
}
