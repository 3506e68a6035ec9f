// categories.go — CategoryService: реестр путей категорий и каскадные
// операции над поддеревьями (переименование, перенос, удаление с миграцией).
//
// Реестр хранится в categories.json как упорядоченный список путей.
// Каждая каскадная операция сначала записывает archive-data.json,
// затем categories.json.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bigkaa/goartstore/archive/internal/domain/category"
	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// MoveResult — итог переноса категории.
type MoveResult struct {
	MovedItems      int `json:"movedItems"`
	MovedCategories int `json:"movedCategories"`
}

// DeletionResult — итог удаления категории с записями.
// Заполнено ровно одно из полей в зависимости от режима.
type DeletionResult struct {
	Moved   int `json:"moved"`
	Deleted int `json:"deleted"`
}

// CategoryService — сервис реестра категорий.
type CategoryService struct {
	repo   *Repository
	policy category.OrderPolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewCategoryService создаёт сервис категорий.
func NewCategoryService(repo *Repository, policy category.OrderPolicy, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		policy: policy,
		logger: logger.With(slog.String("service", "categories")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Policy возвращает политику порядка категорий.
func (s *CategoryService) Policy() category.OrderPolicy {
	return s.policy
}

// List возвращает пути реестра без повторов: в сохранённом порядке
// или по алфавиту, в зависимости от политики.
func (s *CategoryService) List(ctx context.Context) []string {
	paths := cleanRegistry(s.repo.readCategories())
	if s.policy == category.OrderAlpha {
		sortPathsAlpha(paths)
	}
	return paths
}

// Add добавляет путь в конец реестра. Возвращает false, если путь уже есть.
func (s *CategoryService) Add(ctx context.Context, path string) (bool, error) {
	added, err := s.add(path)
	observe("category_add", err)
	return added, err
}

// Ensure регистрирует категорию записи. Корень не регистрируется.
func (s *CategoryService) Ensure(ctx context.Context, path string) error {
	if category.Normalize(path) == "" {
		return nil
	}
	_, err := s.Add(ctx, path)
	return err
}

func (s *CategoryService) add(path string) (bool, error) {
	p := category.Normalize(path)
	if p == "" {
		return false, fmt.Errorf("%w: путь категории пуст", ErrValidation)
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	registry, err := s.loadRegistry()
	if err != nil {
		return false, err
	}
	if slices.Contains(registry, p) {
		return false, nil
	}
	if err := s.repo.saveCategories(append(registry, p)); err != nil {
		return false, err
	}

	s.logger.Info("Категория зарегистрирована", slog.String("path", p))
	return true, nil
}

// Create создаёт подкатегорию name внутри parent ("" — корень).
// Возвращает ErrConflict, если такой путь уже известен.
func (s *CategoryService) Create(ctx context.Context, parent, name string) (string, error) {
	path, err := s.create(parent, name)
	observe("category_create", err)
	return path, err
}

func (s *CategoryService) create(parent, name string) (string, error) {
	if err := category.ValidateSegment(name); err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	parent = category.Normalize(parent)
	full := category.Join(parent, strings.TrimSpace(name))

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, registry, err := s.loadBoth()
	if err != nil {
		return "", err
	}
	known := knownPaths(items, registry)
	if parent != "" {
		if _, ok := known[parent]; !ok {
			return "", fmt.Errorf("%w: категория %q", ErrNotFound, parent)
		}
	}
	if _, ok := known[full]; ok {
		return "", fmt.Errorf("%w: категория %q уже существует", ErrConflict, full)
	}

	if err := s.repo.saveCategories(append(registry, full)); err != nil {
		return "", err
	}

	s.logger.Info("Категория создана", slog.String("path", full))
	return full, nil
}

// DeleteEmpty удаляет путь и всех потомков из реестра.
// Если в поддереве остались записи, возвращает ErrConflict.
func (s *CategoryService) DeleteEmpty(ctx context.Context, path string) error {
	err := s.deleteEmpty(path)
	observe("category_delete_empty", err)
	return err
}

func (s *CategoryService) deleteEmpty(path string) error {
	p := category.Normalize(path)
	if p == "" {
		return fmt.Errorf("%w: нельзя удалить корень", ErrInvalidOperation)
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, registry, err := s.loadBoth()
	if err != nil {
		return err
	}
	for i := range items {
		if category.IsSelfOrDescendant(p, items[i].Category) {
			return fmt.Errorf("%w: в категории %q есть записи", ErrConflict, p)
		}
	}

	kept := slices.DeleteFunc(slices.Clone(registry), func(c string) bool {
		return category.IsSelfOrDescendant(p, c)
	})
	if len(kept) == len(registry) {
		return fmt.Errorf("%w: категория %q", ErrNotFound, p)
	}
	if err := s.repo.saveCategories(kept); err != nil {
		return err
	}

	s.logger.Info("Пустая категория удалена",
		slog.String("path", p),
		slog.Int("removed", len(registry)-len(kept)),
	)
	return nil
}

// Rename заменяет последний сегмент пути и переписывает поддерево
// в записях и реестре. Возвращает новый путь.
func (s *CategoryService) Rename(ctx context.Context, path, newName string) (string, error) {
	newPath, err := s.rename(path, newName)
	observe("category_rename", err)
	return newPath, err
}

func (s *CategoryService) rename(path, newName string) (string, error) {
	p := category.Normalize(path)
	if p == "" {
		return "", fmt.Errorf("%w: нельзя переименовать корень", ErrInvalidOperation)
	}
	if err := category.ValidateSegment(newName); err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	newPath := category.Join(category.Parent(p), strings.TrimSpace(newName))

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, registry, err := s.loadBoth()
	if err != nil {
		return "", err
	}
	known := knownPaths(items, registry)
	if _, ok := known[p]; !ok {
		return "", fmt.Errorf("%w: категория %q", ErrNotFound, p)
	}
	if newPath == p {
		return p, nil
	}
	if _, ok := known[newPath]; ok {
		return "", fmt.Errorf("%w: категория %q уже существует", ErrConflict, newPath)
	}

	movedItems, movedPaths, err := s.rebaseSubtree(items, registry, p, newPath, "rename")
	if err != nil {
		return "", err
	}

	s.logger.Info("Категория переименована",
		slog.String("from", p),
		slog.String("to", newPath),
		slog.Int("items", movedItems),
		slog.Int("categories", movedPaths),
	)
	return newPath, nil
}

// Move переносит поддерево src внутрь dst ("" — в корень).
func (s *CategoryService) Move(ctx context.Context, src, dst string) (MoveResult, error) {
	res, err := s.move(src, dst)
	observe("category_move", err)
	return res, err
}

func (s *CategoryService) move(src, dst string) (MoveResult, error) {
	src = category.Normalize(src)
	dst = category.Normalize(dst)
	if src == "" {
		return MoveResult{}, fmt.Errorf("%w: нельзя перенести корень", ErrInvalidOperation)
	}
	if category.IsSelfOrDescendant(src, dst) {
		return MoveResult{}, fmt.Errorf("%w: нельзя перенести %q в себя или в своего потомка %q",
			ErrInvalidOperation, src, dst)
	}
	newBase := category.Join(dst, category.LastSegment(src))

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, registry, err := s.loadBoth()
	if err != nil {
		return MoveResult{}, err
	}
	known := knownPaths(items, registry)
	if _, ok := known[src]; !ok {
		return MoveResult{}, fmt.Errorf("%w: категория %q", ErrNotFound, src)
	}
	if dst != "" {
		if _, ok := known[dst]; !ok {
			return MoveResult{}, fmt.Errorf("%w: категория назначения %q", ErrNotFound, dst)
		}
	}
	if _, ok := known[newBase]; ok {
		return MoveResult{}, fmt.Errorf("%w: категория %q уже существует", ErrConflict, newBase)
	}

	movedItems, movedPaths, err := s.rebaseSubtree(items, registry, src, newBase, "move")
	if err != nil {
		return MoveResult{}, err
	}

	s.logger.Info("Категория перенесена",
		slog.String("from", src),
		slog.String("to", newBase),
		slog.Int("items", movedItems),
		slog.Int("categories", movedPaths),
	)
	return MoveResult{MovedItems: movedItems, MovedCategories: movedPaths}, nil
}

// Reorder меняет path местами с соседом и возвращает новый порядок.
// Ничего не сохраняет: порядок фиксируется через CommitOrder.
// order == nil — текущий реестр. Возвращает false на границе.
func (s *CategoryService) Reorder(ctx context.Context, order []string, path, direction string) ([]string, bool, error) {
	dir, ok := category.ParseDirection(direction)
	if !ok {
		return nil, false, fmt.Errorf("%w: недопустимое направление %q, допустимые: up, down", ErrValidation, direction)
	}
	if order == nil {
		order = s.List(ctx)
	} else {
		order = cleanRegistry(order)
	}
	out, moved := category.MoveSibling(order, category.Normalize(path), dir)
	return out, moved, nil
}

// CommitOrder сохраняет явный порядок. paths должен быть перестановкой
// текущего реестра.
func (s *CategoryService) CommitOrder(ctx context.Context, paths []string) error {
	err := s.commitOrder(paths)
	observe("category_order", err)
	return err
}

func (s *CategoryService) commitOrder(paths []string) error {
	order := cleanRegistry(paths)

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	registry, err := s.loadRegistry()
	if err != nil {
		return err
	}
	if len(order) != len(registry) || len(paths) != len(order) {
		return fmt.Errorf("%w: порядок должен содержать каждый путь реестра ровно один раз", ErrValidation)
	}
	current := make(map[string]struct{}, len(registry))
	for _, p := range registry {
		current[p] = struct{}{}
	}
	for _, p := range order {
		if _, ok := current[p]; !ok {
			return fmt.Errorf("%w: путь %q отсутствует в реестре", ErrValidation, p)
		}
	}

	if err := s.repo.saveCategories(order); err != nil {
		return err
	}
	s.logger.Info("Порядок категорий сохранён", slog.Int("count", len(order)))
	return nil
}

// HandleDeletion удаляет категорию вместе с содержимым.
// migration != nil — записи и подкатегории переносятся в migration ("" — корень);
// migration == nil — записи поддерева удаляются вместе с файлами.
func (s *CategoryService) HandleDeletion(ctx context.Context, path string, migration *string) (DeletionResult, error) {
	res, err := s.handleDeletion(path, migration)
	observe("category_deletion", err)
	return res, err
}

func (s *CategoryService) handleDeletion(path string, migration *string) (DeletionResult, error) {
	p := category.Normalize(path)
	if p == "" {
		return DeletionResult{}, fmt.Errorf("%w: нельзя удалить корень", ErrInvalidOperation)
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	items, registry, err := s.loadBoth()
	if err != nil {
		return DeletionResult{}, err
	}
	known := knownPaths(items, registry)
	if _, ok := known[p]; !ok {
		return DeletionResult{}, fmt.Errorf("%w: категория %q", ErrNotFound, p)
	}

	if migration != nil {
		target := category.Normalize(*migration)
		if target != "" && category.IsSelfOrDescendant(p, target) {
			return DeletionResult{}, fmt.Errorf("%w: нельзя перенести записи %q в удаляемое поддерево %q",
				ErrInvalidOperation, p, target)
		}
		if target != "" {
			if _, ok := known[target]; !ok {
				return DeletionResult{}, fmt.Errorf("%w: категория назначения %q", ErrNotFound, target)
			}
		}

		moved, _, err := s.rebaseSubtree(items, registry, p, target, "deletion_migrate")
		if err != nil {
			return DeletionResult{}, err
		}
		s.logger.Info("Категория удалена с переносом записей",
			slog.String("path", p),
			slog.String("migration", target),
			slog.Int("moved", moved),
		)
		return DeletionResult{Moved: moved}, nil
	}

	var refs []string
	kept := make([]model.ArchiveItem, 0, len(items))
	for i := range items {
		if category.IsSelfOrDescendant(p, items[i].Category) {
			refs = append(refs, items[i].FileRefs()...)
			continue
		}
		kept = append(kept, items[i])
	}
	deleted := len(items) - len(kept)

	if deleted > 0 {
		if err := s.repo.saveItems(kept); err != nil {
			return DeletionResult{}, err
		}
	}
	keptPaths := slices.DeleteFunc(slices.Clone(registry), func(c string) bool {
		return category.IsSelfOrDescendant(p, c)
	})
	if len(keptPaths) != len(registry) {
		if err := s.repo.saveCategoriesAfterItems("deletion_destroy", keptPaths); err != nil {
			return DeletionResult{}, err
		}
	}
	s.repo.removeFiles(refs...)

	s.logger.Info("Категория удалена вместе с записями",
		slog.String("path", p),
		slog.Int("deleted", deleted),
	)
	return DeletionResult{Deleted: deleted}, nil
}

// rebaseSubtree переносит поддерево from в to в записях (с обновлением
// updatedAt) и в реестре. Возвращает число перенесённых записей и путей.
func (s *CategoryService) rebaseSubtree(items []model.ArchiveItem, registry []string, from, to, op string) (int, int, error) {
	now := s.now()
	movedItems := 0
	for i := range items {
		if np, ok := category.Rebase(items[i].Category, from, to); ok {
			items[i].Category = np
			items[i].UpdatedAt = now
			movedItems++
		}
	}

	movedPaths := 0
	rebased := make([]string, 0, len(registry))
	for _, c := range registry {
		np, ok := category.Rebase(c, from, to)
		if ok {
			movedPaths++
		}
		rebased = append(rebased, np)
	}

	if movedItems > 0 {
		if err := s.repo.saveItems(items); err != nil {
			return 0, 0, err
		}
	}
	if movedPaths > 0 {
		save := s.repo.saveCategories
		if movedItems > 0 {
			save = func(paths []string) error { return s.repo.saveCategoriesAfterItems(op, paths) }
		}
		if err := save(category.Dedupe(rebased)); err != nil {
			return 0, 0, err
		}
	}
	return movedItems, movedPaths, nil
}

func (s *CategoryService) loadRegistry() ([]string, error) {
	registry, err := s.repo.loadCategories()
	if err != nil {
		return nil, err
	}
	return cleanRegistry(registry), nil
}

func (s *CategoryService) loadBoth() ([]model.ArchiveItem, []string, error) {
	items, err := s.repo.loadItems()
	if err != nil {
		return nil, nil, err
	}
	registry, err := s.loadRegistry()
	if err != nil {
		return nil, nil, err
	}
	return items, registry, nil
}

// cleanRegistry нормализует пути и убирает пустые и повторы.
func cleanRegistry(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, category.Normalize(p))
	}
	return category.Dedupe(out)
}

// knownPaths — все пути, видимые в дереве: реестр, категории записей
// и их предки.
func knownPaths(items []model.ArchiveItem, registry []string) map[string]struct{} {
	known := make(map[string]struct{})
	add := func(p string) {
		for p != "" {
			if _, ok := known[p]; ok {
				return
			}
			known[p] = struct{}{}
			p = category.Parent(p)
		}
	}
	for _, p := range registry {
		add(p)
	}
	for i := range items {
		add(items[i].Category)
	}
	return known
}

// sortPathsAlpha сортирует пути посегментно с учётом локали.
func sortPathsAlpha(paths []string) {
	col := collate.New(language.Und)
	slices.SortStableFunc(paths, func(a, b string) int {
		as := strings.Split(a, category.Separator)
		bs := strings.Split(b, category.Separator)
		for i := 0; i < len(as) && i < len(bs); i++ {
			if r := col.CompareString(as[i], bs[i]); r != 0 {
				return r
			}
			if r := strings.Compare(as[i], bs[i]); r != 0 {
				return r
			}
		}
		return len(as) - len(bs)
	})
}
