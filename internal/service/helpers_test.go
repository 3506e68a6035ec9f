package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/archive/internal/domain/category"
	"github.com/bigkaa/goartstore/archive/internal/domain/model"
	"github.com/bigkaa/goartstore/archive/internal/storage/jsondoc"
	"github.com/bigkaa/goartstore/archive/internal/storage/uploads"
)

// testEnv — сервисы поверх временных директорий.
type testEnv struct {
	dataDir    string
	uploadsDir string
	repo       *Repository
	items      *ItemService
	categories *CategoryService
	people     *PeopleService
	tree       *TreeService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupTestEnv создаёт тестовое окружение сервисов.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvWith(t, true, category.OrderExplicit)
}

func setupTestEnvWith(t *testing.T, requireDescription bool, policy category.OrderPolicy) *testEnv {
	t.Helper()

	root := t.TempDir()
	env := &testEnv{
		dataDir:    filepath.Join(root, "data"),
		uploadsDir: filepath.Join(root, "uploads"),
	}
	logger := testLogger()
	env.repo = NewRepository(jsondoc.New(env.dataDir), uploads.New(env.uploadsDir, 1024), logger)
	env.items = NewItemService(env.repo, requireDescription, logger)
	env.categories = NewCategoryService(env.repo, policy, logger)
	env.people = NewPeopleService(env.repo, logger)
	env.tree = NewTreeService(env.repo, policy, 8, 0)
	return env
}

func strPtr(s string) *string { return &s }

// mustCreate создаёт текстовую запись в категории и регистрирует категорию.
func (e *testEnv) mustCreate(t *testing.T, title, cat string) *model.ArchiveItem {
	t.Helper()
	item, err := e.items.Create(context.Background(), CreateParams{
		Title:       title,
		Description: "описание " + title,
		Type:        "text",
		Category:    strPtr(cat),
	})
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	if err := e.categories.Ensure(context.Background(), cat); err != nil {
		t.Fatalf("Ensure(%q): %v", cat, err)
	}
	return item
}

// mustCreateWithFile создаёт запись типа image с файлом и обложкой.
func (e *testEnv) mustCreateWithFile(t *testing.T, title, cat string) *model.ArchiveItem {
	t.Helper()
	item, err := e.items.Create(context.Background(), CreateParams{
		Title:       title,
		Description: "d",
		Type:        "image",
		Category:    strPtr(cat),
		File:        &FileUpload{Name: title + ".png", Reader: strings.NewReader("png")},
		CoverImage:  &FileUpload{Name: title + "-cover.jpg", Reader: strings.NewReader("jpg")},
	})
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return item
}

// uploadPath возвращает путь файла на диске по ссылке.
func (e *testEnv) uploadPath(ref string) string {
	return filepath.Join(e.uploadsDir, strings.TrimPrefix(ref, uploads.Prefix))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// categoriesOf возвращает категории всех записей.
func (e *testEnv) categoriesOf() map[string]string {
	out := make(map[string]string)
	for _, it := range e.items.List(context.Background()) {
		out[it.Title] = it.Category
	}
	return out
}

func writeFile(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o600)
}

// childNamesOf возвращает имена узлов через запятую.
func childNamesOf(nodes []*model.CategoryNode) string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return strings.Join(names, ",")
}

// writeItemsDoc записывает документ записей в том виде, в каком
// его оставило прежнее приложение или ручная правка.
func (e *testEnv) writeItemsDoc(t *testing.T, data string) {
	t.Helper()
	if err := os.MkdirAll(e.dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(e.repo.Docs().Path(ItemsDoc), data); err != nil {
		t.Fatal(err)
	}
}
