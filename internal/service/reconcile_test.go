package service

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestReconcileRunOnce_NoIssues(t *testing.T) {
	env := setupTestEnv(t)
	env.mustCreateWithFile(t, "pic", "")
	env.mustCreate(t, "A", "docs")

	rs := NewReconcileService(env.repo, time.Hour, 0, testLogger())
	report, skipped := rs.RunOnce(context.Background())

	if skipped {
		t.Fatal("Сверка пропущена")
	}
	if len(report.Issues) != 0 {
		t.Errorf("Ожидалось 0 проблем, получено %d: %+v", len(report.Issues), report.Issues)
	}
	if report.ItemsChecked != 2 || report.FilesChecked != 2 {
		t.Errorf("Ожидалось 2 записи и 2 файла, получено %d и %d", report.ItemsChecked, report.FilesChecked)
	}
}

func TestReconcileRunOnce_DetectsIssues(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	pic := env.mustCreateWithFile(t, "pic", "media/photos")
	if err := os.Remove(env.uploadPath(*pic.CoverImageURL)); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(env.uploadsDir, 0o750); err != nil {
		t.Fatal(err)
	}
	orphan := filepath.Join(env.uploadsDir, "1-deadbeef-orphan.txt")
	if err := os.WriteFile(orphan, []byte("x"), 0o640); err != nil {
		t.Fatal(err)
	}

	rs := NewReconcileService(env.repo, time.Hour, 0, testLogger())
	report, _ := rs.RunOnce(ctx)

	if report.Summary.MissingFiles != 1 {
		t.Errorf("missing_file: ожидалось 1, получено %d", report.Summary.MissingFiles)
	}
	if report.Summary.OrphanedUploads != 1 || report.Summary.RemovedOrphans != 0 {
		t.Errorf("orphaned_upload: ожидалось 1 без удаления, получено %+v", report.Summary)
	}
	if report.Summary.UnregisteredCategories != 1 {
		t.Errorf("unregistered_category: ожидалось 1, получено %d", report.Summary.UnregisteredCategories)
	}

	// Без orphanGrace файл остаётся на диске
	if !fileExists(orphan) {
		t.Error("осиротевший файл не должен удаляться при orphanGrace == 0")
	}
	// Категория записи зарегистрирована
	if !slices.Contains(env.categories.List(ctx), "media/photos") {
		t.Error("категория media/photos должна быть зарегистрирована")
	}

	// Повторный запуск не находит категорию
	report, _ = rs.RunOnce(ctx)
	if report.Summary.UnregisteredCategories != 0 {
		t.Errorf("повторный запуск: ожидалось 0 незарегистрированных категорий, получено %d",
			report.Summary.UnregisteredCategories)
	}
}

func TestReconcileRunOnce_RemovesOldOrphans(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.MkdirAll(env.uploadsDir, 0o750); err != nil {
		t.Fatal(err)
	}

	old := filepath.Join(env.uploadsDir, "old.txt")
	fresh := filepath.Join(env.uploadsDir, "fresh.txt")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0o640); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	rs := NewReconcileService(env.repo, time.Hour, time.Hour, testLogger())
	report, _ := rs.RunOnce(context.Background())

	if report.Summary.OrphanedUploads != 2 || report.Summary.RemovedOrphans != 1 {
		t.Errorf("ожидалось 2 осиротевших файла и 1 удалённый, получено %+v", report.Summary)
	}
	if fileExists(old) {
		t.Error("старый осиротевший файл должен быть удалён")
	}
	if !fileExists(fresh) {
		t.Error("свежий файл не должен удаляться")
	}
}

func TestReconcileStartStop(t *testing.T) {
	env := setupTestEnv(t)

	rs := NewReconcileService(env.repo, 10*time.Millisecond, 0, testLogger())
	rs.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	rs.Stop()

	if rs.IsInProgress() {
		t.Error("после Stop сверка не должна выполняться")
	}

	// interval == 0 — периодическая сверка отключена
	off := NewReconcileService(env.repo, 0, 0, testLogger())
	off.Start(context.Background())
	off.Stop()
}

// TestReconcileRunOnce_RegistryWriteError проверяет, что сбой записи реестра
// попадает в журнал с причиной, а проблема остаётся неисправленной.
func TestReconcileRunOnce_RegistryWriteError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("права на директорию не действуют для root")
	}
	env := setupTestEnv(t)
	ctx := context.Background()
	env.mustCreate(t, "a", "known")
	env.mustCreateWithFile(t, "pic", "media")

	if err := os.Chmod(env.dataDir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(env.dataDir, 0o750) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rs := NewReconcileService(env.repo, time.Hour, 0, logger)
	report, _ := rs.RunOnce(ctx)

	if report.Summary.UnregisteredCategories != 1 {
		t.Fatalf("unregistered_category: ожидалось 1, получено %d", report.Summary.UnregisteredCategories)
	}
	for _, issue := range report.Issues {
		if issue.Type == IssueUnregisteredCategory && issue.Fixed {
			t.Error("категория не должна считаться зарегистрированной")
		}
	}
	out := buf.String()
	if !strings.Contains(out, "Не удалось зарегистрировать категории записей") || !strings.Contains(out, "error=") {
		t.Errorf("ожидалась ошибка записи реестра с причиной, получено %s", out)
	}
}
