// items.go — ItemService: создание, изменение, удаление и выборка записей архива.
//
// Записи хранятся в archive-data.json, новые добавляются в начало.
// Файлы содержимого и обложки сохраняются до записи документа;
// при сбое записи документа сохранённые файлы удаляются.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bigkaa/goartstore/archive/internal/domain/category"
	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// Порядок сортировки записей.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortTitle   = "title"
	SortUpdated = "updated"
)

// ItemService — сервис записей архива.
type ItemService struct {
	repo               *Repository
	requireDescription bool
	logger             *slog.Logger
	now                func() time.Time
}

// CreateParams — поля новой записи.
type CreateParams struct {
	Title       string
	Description string
	Type        string
	// Category — nil означает "не передана" (ошибка валидации), "" — корень
	Category *string
	Tags     []string
	// Content — inline-текст, учитывается только для type == text
	Content    *string
	File       *FileUpload
	CoverImage *FileUpload
}

// UpdateParams — изменяемые поля. nil означает "не передано".
type UpdateParams struct {
	Title       *string
	Description *string
	Type        *string
	Category    *string
	Tags        *[]string
	// Content — "" является явным значением и отличается от nil
	Content          *string
	File             *FileUpload
	CoverImage       *FileUpload
	RemoveCoverImage bool
}

// ItemFilter — параметры выборки записей.
type ItemFilter struct {
	// Category — nil: все записи; иначе только указанная категория
	Category *string
	// Subtree — включать записи подкатегорий
	Subtree bool
	Tag     string
	Type    string
	// Search — подстрока без учёта регистра в title, description, tags, content
	Search string
	Sort   string
	Limit  int
	Offset int
}

// NewItemService создаёт сервис записей.
// requireDescription — требовать непустое описание (ARCHIVE_REQUIRE_DESCRIPTION).
func NewItemService(repo *Repository, requireDescription bool, logger *slog.Logger) *ItemService {
	return &ItemService{
		repo:               repo,
		requireDescription: requireDescription,
		logger:             logger.With(slog.String("service", "items")),
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// List возвращает все записи в сохранённом порядке (новые первыми).
// При ошибке чтения возвращает пустой список.
func (s *ItemService) List(ctx context.Context) []model.ArchiveItem {
	return s.repo.readItems()
}

// Query возвращает страницу записей по фильтру и общее число совпадений.
func (s *ItemService) Query(ctx context.Context, f ItemFilter) ([]model.ArchiveItem, int, error) {
	if f.Type != "" {
		if _, err := model.ParseFileType(f.Type); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	switch f.Sort {
	case "", SortNewest, SortOldest, SortTitle, SortUpdated:
	default:
		return nil, 0, fmt.Errorf("%w: недопустимая сортировка %q", ErrValidation, f.Sort)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: limit и offset не могут быть отрицательными", ErrValidation)
	}

	matched := filterItems(s.repo.readItems(), f)
	sortItems(matched, f.Sort)

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

// Tags возвращает различные теги записей категории в порядке первого появления.
// category == nil — теги всех записей.
func (s *ItemService) Tags(ctx context.Context, cat *string, subtree bool) []string {
	items := filterItems(s.repo.readItems(), ItemFilter{Category: cat, Subtree: subtree})

	seen := make(map[string]struct{})
	tags := []string{}
	for i := range items {
		for _, t := range items[i].Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}

// Get возвращает запись по ID.
func (s *ItemService) Get(ctx context.Context, id string) (*model.ArchiveItem, error) {
	items := s.repo.readItems()
	if i := indexOf(items, id); i >= 0 {
		item := items[i]
		return &item, nil
	}
	return nil, fmt.Errorf("%w: запись %q", ErrNotFound, id)
}

// Create валидирует поля, сохраняет файлы и добавляет запись в начало.
func (s *ItemService) Create(ctx context.Context, p CreateParams) (*model.ArchiveItem, error) {
	item, err := s.create(p)
	observe("item_create", err)
	return item, err
}

func (s *ItemService) create(p CreateParams) (*model.ArchiveItem, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: заголовок обязателен", ErrValidation)
	}
	description := strings.TrimSpace(p.Description)
	if s.requireDescription && description == "" {
		return nil, fmt.Errorf("%w: описание обязательно", ErrValidation)
	}
	if p.Type == "" {
		return nil, fmt.Errorf("%w: тип обязателен", ErrValidation)
	}
	ft, err := model.ParseFileType(p.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if p.Category == nil {
		return nil, fmt.Errorf("%w: категория обязательна", ErrValidation)
	}
	if ft.RequiresFile() && p.File == nil {
		return nil, fmt.Errorf("%w: для типа %s нужен файл", ErrValidation, ft)
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, err := s.repo.loadItems()
	if err != nil {
		return nil, err
	}

	now := s.now()
	item := model.ArchiveItem{
		ID:          newID(),
		Title:       title,
		Type:        ft,
		Category:    category.Normalize(*p.Category),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        NormalizeTags(p.Tags),
	}
	if ft.AcceptsContent() && p.Content != nil {
		content := *p.Content
		item.Content = &content
	}

	var saved []string
	if p.File != nil {
		ref, err := s.repo.saveUpload(p.File)
		if err != nil {
			return nil, err
		}
		saved = append(saved, ref)
		item.URL = &ref
	}
	if p.CoverImage != nil {
		ref, err := s.repo.saveUpload(p.CoverImage)
		if err != nil {
			s.repo.removeFiles(saved...)
			return nil, err
		}
		saved = append(saved, ref)
		item.CoverImageURL = &ref
	}

	items = slices.Insert(items, 0, item)
	if err := s.repo.saveItems(items); err != nil {
		s.repo.removeFiles(saved...)
		return nil, err
	}

	s.logger.Info("Запись создана",
		slog.String("id", item.ID),
		slog.String("type", string(item.Type)),
		slog.String("category", item.Category),
	)
	return &item, nil
}

// Update изменяет только переданные поля и всегда обновляет updatedAt.
// Новый файл заменяет старый; старый удаляется best-effort после записи.
func (s *ItemService) Update(ctx context.Context, id string, p UpdateParams) (*model.ArchiveItem, error) {
	item, err := s.update(id, p)
	observe("item_update", err)
	return item, err
}

// Move переносит запись в другую категорию.
func (s *ItemService) Move(ctx context.Context, id, cat string) (*model.ArchiveItem, error) {
	item, err := s.update(id, UpdateParams{Category: &cat})
	observe("item_move", err)
	return item, err
}

func (s *ItemService) update(id string, p UpdateParams) (*model.ArchiveItem, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, err := s.repo.loadItems()
	if err != nil {
		return nil, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: запись %q", ErrNotFound, id)
	}
	cur := items[i].Clone()

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: заголовок не может быть пустым", ErrValidation)
		}
		cur.Title = title
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		if s.requireDescription && description == "" {
			return nil, fmt.Errorf("%w: описание не может быть пустым", ErrValidation)
		}
		cur.Description = description
	}
	// Правила типа проверяются только при смене типа: сохранённые поля
	// записей из старых документов остаются как есть.
	typeChanged := false
	if p.Type != nil {
		ft, err := model.ParseFileType(*p.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		typeChanged = ft != cur.Type
		cur.Type = ft
	}
	if p.Category != nil {
		cur.Category = category.Normalize(*p.Category)
	}
	if p.Tags != nil {
		cur.Tags = NormalizeTags(*p.Tags)
	}
	if p.Content != nil && cur.Type.AcceptsContent() {
		content := *p.Content
		cur.Content = &content
	}
	if typeChanged && !cur.Type.AcceptsContent() {
		cur.Content = nil
	}
	if typeChanged && cur.Type.RequiresFile() && cur.URL == nil && p.File == nil {
		return nil, fmt.Errorf("%w: для типа %s нужен файл", ErrValidation, cur.Type)
	}

	var saved, obsolete []string
	if p.File != nil {
		ref, err := s.repo.saveUpload(p.File)
		if err != nil {
			return nil, err
		}
		saved = append(saved, ref)
		if cur.URL != nil {
			obsolete = append(obsolete, *cur.URL)
		}
		cur.URL = &ref
	}
	switch {
	case p.RemoveCoverImage:
		if cur.CoverImageURL != nil {
			obsolete = append(obsolete, *cur.CoverImageURL)
		}
		cur.CoverImageURL = nil
	case p.CoverImage != nil:
		ref, err := s.repo.saveUpload(p.CoverImage)
		if err != nil {
			s.repo.removeFiles(saved...)
			return nil, err
		}
		saved = append(saved, ref)
		if cur.CoverImageURL != nil {
			obsolete = append(obsolete, *cur.CoverImageURL)
		}
		cur.CoverImageURL = &ref
	}

	cur.UpdatedAt = s.now()
	items[i] = cur

	if err := s.repo.saveItems(items); err != nil {
		s.repo.removeFiles(saved...)
		return nil, err
	}
	s.repo.removeFiles(obsolete...)

	s.logger.Info("Запись обновлена",
		slog.String("id", cur.ID),
		slog.String("category", cur.Category),
	)
	return &cur, nil
}

// Delete удаляет запись и best-effort удаляет её файлы.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	err := s.delete(id)
	observe("item_delete", err)
	return err
}

func (s *ItemService) delete(id string) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, err := s.repo.loadItems()
	if err != nil {
		return err
	}
	i := indexOf(items, id)
	if i < 0 {
		return fmt.Errorf("%w: запись %q", ErrNotFound, id)
	}
	refs := items[i].FileRefs()

	items = slices.Delete(items, i, i+1)
	if err := s.repo.saveItems(items); err != nil {
		return err
	}
	s.repo.removeFiles(refs...)

	s.logger.Info("Запись удалена", slog.String("id", id))
	return nil
}

// NormalizeTags обрезает пробелы и отбрасывает пустые теги.
// Порядок и повторы сохраняются.
func NormalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitTags разбирает теги, введённые через запятую.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

func indexOf(items []model.ArchiveItem, id string) int {
	return slices.IndexFunc(items, func(it model.ArchiveItem) bool { return it.ID == id })
}

// filterItems возвращает копию подходящих записей в сохранённом порядке.
func filterItems(items []model.ArchiveItem, f ItemFilter) []model.ArchiveItem {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var cat string
	if f.Category != nil {
		cat = category.Normalize(*f.Category)
	}

	out := make([]model.ArchiveItem, 0, len(items))
	for i := range items {
		it := &items[i]
		if f.Category != nil {
			if f.Subtree {
				if !category.IsSelfOrDescendant(cat, it.Category) {
					continue
				}
			} else if it.Category != cat {
				continue
			}
		}
		if f.Tag != "" && !it.HasTag(f.Tag) {
			continue
		}
		if f.Type != "" && string(it.Type) != f.Type {
			continue
		}
		if search != "" && !matchesSearch(it, search) {
			continue
		}
		out = append(out, *it)
	}
	return out
}

func matchesSearch(it *model.ArchiveItem, needle string) bool {
	if strings.Contains(strings.ToLower(it.Title), needle) ||
		strings.Contains(strings.ToLower(it.Description), needle) {
		return true
	}
	if it.Content != nil && strings.Contains(strings.ToLower(*it.Content), needle) {
		return true
	}
	for _, t := range it.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// sortItems упорядочивает записи. newest — сохранённый порядок.
func sortItems(items []model.ArchiveItem, order string) {
	switch order {
	case SortOldest:
		slices.Reverse(items)
	case SortTitle:
		col := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(items, func(a, b model.ArchiveItem) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortUpdated:
		slices.SortStableFunc(items, func(a, b model.ArchiveItem) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}
}

// newID возвращает UUID v7; при сбое генератора — случайный UUID v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
