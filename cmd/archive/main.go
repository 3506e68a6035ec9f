// Точка входа цифрового архива: HTTP-сервер и служебные команды.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/archive/internal/api/handlers"
	"github.com/bigkaa/goartstore/archive/internal/auth"
	"github.com/bigkaa/goartstore/archive/internal/config"
	"github.com/bigkaa/goartstore/archive/internal/i18n"
	"github.com/bigkaa/goartstore/archive/internal/server"
	"github.com/bigkaa/goartstore/archive/internal/service"
	"github.com/bigkaa/goartstore/archive/internal/storage/jsondoc"
	"github.com/bigkaa/goartstore/archive/internal/storage/uploads"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var seed bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP-сервер архива",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), seed)
		},
	}
	serveCmd.Flags().BoolVar(&seed, "seed", false, "заполнить пустой архив демонстрационными записями")

	rootCmd := &cobra.Command{
		Use:          "archive",
		Short:        "Цифровой архив: записи, категории, списки памяти",
		SilenceUsage: true,
		// Без подкоманды запускается сервер
		RunE: serveCmd.RunE,
	}
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd, newHashPasswordCmd(), newVersionCmd())
	return rootCmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Вывести bcrypt-хэш для ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Вывести версию",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Version)
		},
	}
}

// serve собирает компоненты и блокируется до завершения сервера.
func serve(ctx context.Context, seed bool) error {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		return err
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Архив запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("uploads_dir", cfg.UploadsDir),
		slog.String("category_order", string(cfg.CategoryOrder)),
	)

	// --- Инициализация компонентов ---

	// 1. Хранилища
	for _, dir := range []string{cfg.DataDir, cfg.UploadsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			logger.Error("Ошибка создания директории",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			return err
		}
	}
	repo := service.NewRepository(jsondoc.New(cfg.DataDir), uploads.New(cfg.UploadsDir, cfg.MaxUploadSize), logger)

	// 2. Сервисы
	itemSvc := service.NewItemService(repo, cfg.RequireDescription, logger)
	categorySvc := service.NewCategoryService(repo, cfg.CategoryOrder, logger)
	peopleSvc := service.NewPeopleService(repo, logger)
	treeSvc := service.NewTreeService(repo, cfg.CategoryOrder, cfg.TreeCacheSize, cfg.TreeCacheTTL)
	reconcileSvc := service.NewReconcileService(repo, cfg.ReconcileInterval, cfg.OrphanGrace, logger)

	if seed {
		if _, err := itemSvc.Seed(ctx, service.SampleItems()); err != nil {
			logger.Error("Ошибка заполнения архива примерами", slog.String("error", err.Error()))
			return err
		}
	}

	// 3. Доступ
	gate, err := auth.NewGate(auth.Options{
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
		SessionKey:   cfg.SessionKey,
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.SecureCookie,
	}, logger)
	if err != nil {
		logger.Error("Ошибка инициализации доступа", slog.String("error", err.Error()))
		return err
	}
	if !gate.Configured() {
		logger.Warn("Пароль администратора не задан, изменения архива недоступны")
	}

	// 4. Сообщения
	messages, err := i18n.Load(logger)
	if err != nil {
		logger.Error("Ошибка загрузки каталогов сообщений", slog.String("error", err.Error()))
		return err
	}

	// 5. Фоновая сверка
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	reconcileSvc.Start(runCtx)

	// 6. Handlers
	apiHandler := handlers.NewAPIHandler(handlers.Deps{
		Items:         itemSvc,
		Categories:    categorySvc,
		Tree:          treeSvc,
		People:        peopleSvc,
		Reconcile:     reconcileSvc,
		Gate:          gate,
		Messages:      messages,
		Health:        handlers.NewHealthHandler(cfg.DataDir, cfg.UploadsDir, reconcileSvc),
		MaxUploadSize: cfg.MaxUploadSize,
	}, logger)

	// 7. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler, gate)
	runErr := srv.Run(runCtx)

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	reconcileSvc.Stop()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		return runErr
	}
	logger.Info("Архив остановлен")
	return nil
}
