// repository.go — общий доступ сервисов к JSON-документам и загрузкам.
//
// Каждый изменяющий сервисный вызов выполняет полный цикл
// "прочитать документ → изменить копию → записать документ" под одним
// мьютексом процесса. Это закрывает гонку двух параллельных запросов,
// при которой второй перезаписал бы изменения первого.
// Документы записей и категорий по-прежнему пишутся независимо:
// сначала записи, затем реестр.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bigkaa/goartstore/archive/internal/domain/category"
	"github.com/bigkaa/goartstore/archive/internal/domain/model"
	"github.com/bigkaa/goartstore/archive/internal/storage/jsondoc"
	"github.com/bigkaa/goartstore/archive/internal/storage/uploads"
)

// Имена JSON-документов в ARCHIVE_DATA_DIR.
const (
	ItemsDoc      = "archive-data.json"
	CategoriesDoc = "categories.json"
	PeopleDoc     = "people.json"
)

// FileUpload — файл, переданный вместе с формой записи.
type FileUpload struct {
	// Name — исходное имя файла у клиента
	Name string
	// Reader — содержимое
	Reader io.Reader
}

// Repository — документы архива, директория загрузок и мьютекс записи.
type Repository struct {
	docs   *jsondoc.Store
	files  *uploads.Store
	logger *slog.Logger

	mu       sync.Mutex // сериализует read-modify-write всех сервисов
	onChange []func()
}

// NewRepository создаёт Repository.
func NewRepository(docs *jsondoc.Store, files *uploads.Store, logger *slog.Logger) *Repository {
	return &Repository{
		docs:   docs,
		files:  files,
		logger: logger.With(slog.String("component", "repository")),
	}
}

// OnChange регистрирует обработчик, вызываемый после каждой успешной записи
// документа. Регистрация выполняется до начала обслуживания запросов.
func (r *Repository) OnChange(fn func()) {
	r.onChange = append(r.onChange, fn)
}

// Docs возвращает хранилище JSON-документов.
func (r *Repository) Docs() *jsondoc.Store {
	return r.docs
}

// Files возвращает хранилище загрузок.
func (r *Repository) Files() *uploads.Store {
	return r.files
}

func (r *Repository) changed() {
	for _, fn := range r.onChange {
		fn()
	}
}

// loadItems читает записи. Ошибка оборачивается в ErrStorage.
// Категории записей приводятся к каноническому виду: документы,
// записанные вручную, могут содержать "a/" или "Media ".
func (r *Repository) loadItems() ([]model.ArchiveItem, error) {
	items, err := jsondoc.Load(r.docs, ItemsDoc, []model.ArchiveItem{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	for i := range items {
		items[i].Category = category.Normalize(items[i].Category)
	}
	return items, nil
}

// readItems читает записи для отображения: при ошибке логирует
// и возвращает пустой список.
func (r *Repository) readItems() []model.ArchiveItem {
	items, err := r.loadItems()
	if err != nil {
		r.logger.Error("Ошибка чтения записей, возвращается пустой список",
			slog.String("error", err.Error()),
		)
		return []model.ArchiveItem{}
	}
	return items
}

func (r *Repository) saveItems(items []model.ArchiveItem) error {
	if items == nil {
		items = []model.ArchiveItem{}
	}
	if err := jsondoc.Save(r.docs, ItemsDoc, items); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	itemsTotal.Set(float64(len(items)))
	r.changed()
	return nil
}

func (r *Repository) loadCategories() ([]string, error) {
	paths, err := jsondoc.Load(r.docs, CategoriesDoc, []string{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return paths, nil
}

func (r *Repository) readCategories() []string {
	paths, err := r.loadCategories()
	if err != nil {
		r.logger.Error("Ошибка чтения реестра категорий, возвращается пустой список",
			slog.String("error", err.Error()),
		)
		return []string{}
	}
	return paths
}

func (r *Repository) saveCategories(paths []string) error {
	if paths == nil {
		paths = []string{}
	}
	if err := jsondoc.Save(r.docs, CategoriesDoc, paths); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	categoriesTotal.Set(float64(len(paths)))
	r.changed()
	return nil
}

// saveCategoriesAfterItems записывает реестр после уже записанных записей.
// Сбой между двумя записями логируется как несогласованность.
func (r *Repository) saveCategoriesAfterItems(op string, paths []string) error {
	if err := r.saveCategories(paths); err != nil {
		r.logger.Error("Записи сохранены, реестр категорий — нет: документы несогласованы",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (r *Repository) loadPeople() (model.PeopleData, error) {
	empty := model.PeopleData{Memorial: []model.Person{}, Healing: []model.Person{}}
	people, err := jsondoc.Load(r.docs, PeopleDoc, empty)
	if err != nil {
		return empty, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if people.Memorial == nil {
		people.Memorial = []model.Person{}
	}
	if people.Healing == nil {
		people.Healing = []model.Person{}
	}
	return people, nil
}

func (r *Repository) savePeople(people model.PeopleData) error {
	if err := jsondoc.Save(r.docs, PeopleDoc, people); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	r.changed()
	return nil
}

// saveUpload сохраняет файл в директорию загрузок и возвращает ссылку.
func (r *Repository) saveUpload(f *FileUpload) (string, error) {
	ref, size, err := r.files.Save(f.Reader, f.Name)
	if err != nil {
		if errors.Is(err, uploads.ErrTooLarge) {
			return "", fmt.Errorf("%w: %s: %w", ErrTooLarge, f.Name, err)
		}
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	r.logger.Debug("Файл загружен",
		slog.String("ref", ref),
		slog.Int64("size", size),
	)
	return ref, nil
}

// removeFiles удаляет файлы best-effort: ошибки логируются и не возвращаются.
func (r *Repository) removeFiles(refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := r.files.Delete(ref); err != nil {
			r.logger.Warn("Не удалось удалить файл",
				slog.String("ref", ref),
				slog.String("error", err.Error()),
			)
		}
	}
}
