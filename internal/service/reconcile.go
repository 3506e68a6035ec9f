// reconcile.go — сервис сверки (Reconciliation) записей архива
// с директорией загрузок и реестром категорий.
//
// Reconciliation сравнивает:
//   - файлы в директории загрузок со ссылками url/coverImageUrl записей
//   - ссылки записей с файлами на диске
//   - категории записей с реестром категорий
//
// Обнаруживает проблемы:
//   - orphaned_upload: файл в директории загрузок, на который не ссылается ни одна запись
//   - missing_file: запись ссылается на отсутствующий файл
//   - unregistered_category: категория записи отсутствует в реестре (регистрируется)
//
// Осиротевшие файлы старше orphanGrace удаляются; orphanGrace == 0 — только отчёт.
// Может запускаться периодически (ARCHIVE_RECONCILE_INTERVAL) и вручную через API.
package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bigkaa/goartstore/archive/internal/storage/uploads"
)

// IssueType — тип проблемы, найденной сверкой.
type IssueType string

const (
	IssueOrphanedUpload       IssueType = "orphaned_upload"
	IssueMissingFile          IssueType = "missing_file"
	IssueUnregisteredCategory IssueType = "unregistered_category"
)

// ReconcileIssue — одна найденная проблема.
type ReconcileIssue struct {
	Type        IssueType `json:"type"`
	ItemID      string    `json:"itemId,omitempty"`
	Ref         string    `json:"ref,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description"`
	// Fixed — проблема устранена в этом запуске
	Fixed bool `json:"fixed"`
}

// ReconcileSummary — счётчики по типам проблем.
type ReconcileSummary struct {
	OrphanedUploads        int `json:"orphanedUploads"`
	MissingFiles           int `json:"missingFiles"`
	UnregisteredCategories int `json:"unregisteredCategories"`
	RemovedOrphans         int `json:"removedOrphans"`
}

// ReconcileReport — результат одного запуска.
type ReconcileReport struct {
	StartedAt    time.Time        `json:"startedAt"`
	CompletedAt  time.Time        `json:"completedAt"`
	ItemsChecked int              `json:"itemsChecked"`
	FilesChecked int              `json:"filesChecked"`
	Issues       []ReconcileIssue `json:"issues"`
	Summary      ReconcileSummary `json:"summary"`
}

// ReconcileService — сервис сверки архива.
type ReconcileService struct {
	repo        *Repository
	interval    time.Duration
	orphanGrace time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu        sync.Mutex // защита от параллельного запуска
	inProcess bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewReconcileService создаёт сервис сверки.
func NewReconcileService(repo *Repository, interval, orphanGrace time.Duration, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{
		repo:        repo,
		interval:    interval,
		orphanGrace: orphanGrace,
		logger:      logger.With(slog.String("component", "reconcile")),
		now:         time.Now,
	}
}

// Start запускает периодическую сверку. При interval == 0 ничего не делает.
func (rs *ReconcileService) Start(ctx context.Context) {
	if rs.interval <= 0 {
		rs.logger.Info("Периодическая сверка отключена")
		return
	}
	rsCtx, cancel := context.WithCancel(ctx)
	rs.cancel = cancel
	rs.done = make(chan struct{})

	go rs.run(rsCtx)

	rs.logger.Info("Сверка запущена",
		slog.String("interval", rs.interval.String()),
		slog.String("orphan_grace", rs.orphanGrace.String()),
	)
}

// Stop останавливает периодическую сверку и ждёт завершения горутины.
func (rs *ReconcileService) Stop() {
	if rs.cancel == nil {
		return
	}
	rs.cancel()
	<-rs.done
	rs.logger.Info("Сверка остановлена")
}

// IsInProgress возвращает true, если сверка выполняется.
func (rs *ReconcileService) IsInProgress() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.inProcess
}

func (rs *ReconcileService) run(ctx context.Context) {
	defer close(rs.done)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один цикл сверки.
// Если сверка уже выполняется, возвращает nil, true.
func (rs *ReconcileService) RunOnce(ctx context.Context) (*ReconcileReport, bool) {
	rs.mu.Lock()
	if rs.inProcess {
		rs.mu.Unlock()
		rs.logger.Warn("Сверка уже выполняется, пропуск")
		return nil, true
	}
	rs.inProcess = true
	rs.mu.Unlock()

	defer func() {
		rs.mu.Lock()
		rs.inProcess = false
		rs.mu.Unlock()
	}()

	report := &ReconcileReport{StartedAt: rs.now().UTC(), Issues: []ReconcileIssue{}}
	rs.logger.Info("Сверка начата")

	rs.reconcile(report)

	report.CompletedAt = rs.now().UTC()
	for _, issue := range report.Issues {
		switch issue.Type {
		case IssueOrphanedUpload:
			report.Summary.OrphanedUploads++
			if issue.Fixed {
				report.Summary.RemovedOrphans++
			}
		case IssueMissingFile:
			report.Summary.MissingFiles++
		case IssueUnregisteredCategory:
			report.Summary.UnregisteredCategories++
		}
		reconcileIssuesTotal.WithLabelValues(string(issue.Type)).Inc()
	}
	reconcileRunsTotal.Inc()
	reconcileDurationSeconds.Observe(report.CompletedAt.Sub(report.StartedAt).Seconds())

	rs.logger.Info("Сверка завершена",
		slog.Int("items_checked", report.ItemsChecked),
		slog.Int("files_checked", report.FilesChecked),
		slog.Int("issues", len(report.Issues)),
		slog.Duration("duration", report.CompletedAt.Sub(report.StartedAt)),
	)
	return report, false
}

// reconcile выполняет сверку под мьютексом репозитория: загрузка файла
// и запись документа в ItemService не разделяются сверкой.
func (rs *ReconcileService) reconcile(report *ReconcileReport) {
	rs.repo.mu.Lock()
	defer rs.repo.mu.Unlock()

	items, err := rs.repo.loadItems()
	if err != nil {
		rs.logger.Error("Ошибка чтения записей при сверке",
			slog.String("error", err.Error()),
		)
		return
	}
	files, err := rs.repo.files.Scan()
	if err != nil {
		rs.logger.Error("Ошибка чтения директории загрузок",
			slog.String("error", err.Error()),
		)
		return
	}
	report.ItemsChecked = len(items)
	report.FilesChecked = len(files)

	// 1. Ссылки записей на отсутствующие файлы (missing_file)
	referenced := make(map[string]struct{})
	for i := range items {
		for _, ref := range items[i].FileRefs() {
			referenced[ref] = struct{}{}
			if uploads.IsRef(ref) && !rs.repo.files.Exists(ref) {
				report.Issues = append(report.Issues, ReconcileIssue{
					Type:        IssueMissingFile,
					ItemID:      items[i].ID,
					Ref:         ref,
					Description: "Запись ссылается на отсутствующий файл",
				})
			}
		}
	}

	// 2. Файлы без ссылок (orphaned_upload)
	now := rs.now()
	for _, f := range files {
		if _, ok := referenced[f.Ref]; ok {
			continue
		}
		issue := ReconcileIssue{
			Type:        IssueOrphanedUpload,
			Ref:         f.Ref,
			Description: "Файл в директории загрузок без записи",
		}
		if rs.orphanGrace > 0 && now.Sub(f.ModTime) > rs.orphanGrace {
			if err := rs.repo.files.Delete(f.Ref); err != nil {
				rs.logger.Warn("Не удалось удалить осиротевший файл",
					slog.String("ref", f.Ref),
					slog.String("error", err.Error()),
				)
			} else {
				issue.Fixed = true
			}
		}
		report.Issues = append(report.Issues, issue)
	}

	// 3. Категории записей вне реестра (unregistered_category)
	registry, err := rs.repo.loadCategories()
	if err != nil {
		rs.logger.Error("Ошибка чтения реестра категорий при сверке",
			slog.String("error", err.Error()),
		)
		return
	}
	registry = cleanRegistry(registry)
	var missing []string
	for i := range items {
		c := items[i].Category
		if c == "" || slices.Contains(registry, c) || slices.Contains(missing, c) {
			continue
		}
		missing = append(missing, c)
	}
	if len(missing) == 0 {
		return
	}

	err = rs.repo.saveCategories(append(registry, missing...))
	fixed := err == nil
	if !fixed {
		rs.logger.Error("Не удалось зарегистрировать категории записей",
			slog.Int("count", len(missing)),
			slog.String("error", err.Error()),
		)
	}
	for _, c := range missing {
		report.Issues = append(report.Issues, ReconcileIssue{
			Type:        IssueUnregisteredCategory,
			Category:    c,
			Description: "Категория записи отсутствует в реестре",
			Fixed:       fixed,
		})
	}
}
