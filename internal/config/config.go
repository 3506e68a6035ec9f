// Пакет config — загрузка и валидация конфигурации архива
// из переменных окружения и (опционально) TOML-файла.
//
// Приоритет источников: переменная окружения → файл ARCHIVE_CONFIG_FILE →
// значение по умолчанию.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/archive/internal/domain/category"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации архива.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Путь к TLS-сертификату (пусто — без TLS)
	TLSCertFile string
	// Путь к приватному ключу TLS
	TLSKeyFile string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// --- Хранилище ---

	// Директория JSON-документов (archive-data.json, categories.json, people.json)
	DataDir string
	// Директория загруженных файлов, публикуется как /uploads/
	UploadsDir string
	// Максимальный размер загружаемого файла в байтах
	MaxUploadSize int64

	// --- Доступ ---

	// Общий пароль администратора в открытом виде
	AdminPassword string
	// bcrypt-хэш пароля (альтернатива AdminPassword)
	AdminPasswordHash string
	// Ключ подписи сессионных токенов (пусто — случайный на процесс)
	SessionKey string
	// Время жизни сессии
	SessionTTL time.Duration
	// Cookie сессии только по HTTPS
	SecureCookie bool

	// --- Архив ---

	// Требовать непустое описание записи
	RequireDescription bool
	// Порядок категорий: explicit или alpha
	CategoryOrder category.OrderPolicy
	// Размер LRU-кэша дерева категорий
	TreeCacheSize int
	// TTL записи кэша дерева
	TreeCacheTTL time.Duration
	// Интервал периодической сверки (0 — отключена)
	ReconcileInterval time.Duration
	// Возраст, после которого осиротевшие загрузки удаляются (0 — не удалять)
	OrphanGrace time.Duration

	// Путь к TOML-файлу, из которого загружена конфигурация (если задан)
	ConfigFile string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	src := source{}
	cfg := &Config{}
	var err error

	// ARCHIVE_CONFIG_FILE — TOML-файл со значениями по умолчанию (опционально)
	cfg.ConfigFile = os.Getenv("ARCHIVE_CONFIG_FILE")
	if cfg.ConfigFile != "" {
		src.file, err = loadFile(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("ARCHIVE_CONFIG_FILE: %w", err)
		}
	}

	// --- Сервер ---

	// ARCHIVE_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = src.getInt("ARCHIVE_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("ARCHIVE_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// ARCHIVE_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(src.getDefault("ARCHIVE_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_LOG_LEVEL: %w", err)
	}

	// ARCHIVE_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = src.getDefault("ARCHIVE_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("ARCHIVE_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// ARCHIVE_TLS_CERT / ARCHIVE_TLS_KEY — задаются вместе
	cfg.TLSCertFile = src.getDefault("ARCHIVE_TLS_CERT", "")
	cfg.TLSKeyFile = src.getDefault("ARCHIVE_TLS_KEY", "")
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("ARCHIVE_TLS_CERT и ARCHIVE_TLS_KEY должны задаваться вместе")
	}

	// ARCHIVE_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = src.getDuration("ARCHIVE_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Хранилище ---

	// ARCHIVE_DATA_DIR — директория JSON-документов (по умолчанию ./data)
	cfg.DataDir = src.getDefault("ARCHIVE_DATA_DIR", "./data")

	// ARCHIVE_UPLOADS_DIR — директория загрузок (по умолчанию ./public/uploads)
	cfg.UploadsDir = src.getDefault("ARCHIVE_UPLOADS_DIR", "./public/uploads")

	// ARCHIVE_MAX_UPLOAD_SIZE — лимит размера файла в байтах (по умолчанию 100 МиБ)
	cfg.MaxUploadSize, err = src.getInt64("ARCHIVE_MAX_UPLOAD_SIZE", 100<<20)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize < 1 {
		return nil, fmt.Errorf("ARCHIVE_MAX_UPLOAD_SIZE: значение %d должно быть положительным", cfg.MaxUploadSize)
	}

	// --- Доступ ---

	// ADMIN_PASSWORD — пароль в открытом виде (только из окружения)
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	// ADMIN_PASSWORD_HASH — bcrypt-хэш пароля
	cfg.AdminPasswordHash = src.getDefault("ADMIN_PASSWORD_HASH", "")
	if cfg.AdminPassword != "" && cfg.AdminPasswordHash != "" {
		return nil, errors.New("ADMIN_PASSWORD и ADMIN_PASSWORD_HASH взаимоисключающие")
	}
	if cfg.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.AdminPasswordHash)); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH: некорректный bcrypt-хэш: %w", err)
		}
	}

	// ARCHIVE_SESSION_KEY — ключ подписи сессий, не короче 32 байт (только из окружения)
	cfg.SessionKey = os.Getenv("ARCHIVE_SESSION_KEY")
	if cfg.SessionKey != "" && len(cfg.SessionKey) < 32 {
		return nil, fmt.Errorf("ARCHIVE_SESSION_KEY: длина %d меньше 32 байт", len(cfg.SessionKey))
	}

	// ARCHIVE_SESSION_TTL — время жизни сессии (по умолчанию 24h)
	cfg.SessionTTL, err = src.getDuration("ARCHIVE_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("ARCHIVE_SESSION_TTL: значение %s должно быть положительным", cfg.SessionTTL)
	}

	// ARCHIVE_SECURE_COOKIE — по умолчанию true при включённом TLS
	cfg.SecureCookie, err = src.getBool("ARCHIVE_SECURE_COOKIE", cfg.TLSCertFile != "")
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_SECURE_COOKIE: %w", err)
	}

	// --- Архив ---

	// ARCHIVE_REQUIRE_DESCRIPTION — обязательное описание (по умолчанию true)
	cfg.RequireDescription, err = src.getBool("ARCHIVE_REQUIRE_DESCRIPTION", true)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_REQUIRE_DESCRIPTION: %w", err)
	}

	// ARCHIVE_CATEGORY_ORDER — порядок категорий (по умолчанию explicit)
	cfg.CategoryOrder, err = category.ParseOrderPolicy(src.getDefault("ARCHIVE_CATEGORY_ORDER", string(category.OrderExplicit)))
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_CATEGORY_ORDER: %w", err)
	}

	// ARCHIVE_TREE_CACHE_SIZE — размер кэша дерева (по умолчанию 16)
	cfg.TreeCacheSize, err = src.getInt("ARCHIVE_TREE_CACHE_SIZE", 16)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_TREE_CACHE_SIZE: %w", err)
	}
	if cfg.TreeCacheSize < 1 || cfg.TreeCacheSize > 1024 {
		return nil, fmt.Errorf("ARCHIVE_TREE_CACHE_SIZE: значение %d вне допустимого диапазона 1-1024", cfg.TreeCacheSize)
	}

	// ARCHIVE_TREE_CACHE_TTL — время жизни дерева в кэше (по умолчанию 5m)
	cfg.TreeCacheTTL, err = src.getDuration("ARCHIVE_TREE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_TREE_CACHE_TTL: %w", err)
	}

	// ARCHIVE_RECONCILE_INTERVAL — интервал сверки (по умолчанию 0 — отключена)
	cfg.ReconcileInterval, err = src.getDuration("ARCHIVE_RECONCILE_INTERVAL", 0)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_RECONCILE_INTERVAL: %w", err)
	}

	// ARCHIVE_ORPHAN_GRACE — возраст удаления осиротевших загрузок (по умолчанию 0 — не удалять)
	cfg.OrphanGrace, err = src.getDuration("ARCHIVE_ORPHAN_GRACE", 0)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE_ORPHAN_GRACE: %w", err)
	}
	if cfg.ReconcileInterval < 0 || cfg.OrphanGrace < 0 {
		return nil, errors.New("ARCHIVE_RECONCILE_INTERVAL и ARCHIVE_ORPHAN_GRACE не могут быть отрицательными")
	}

	return cfg, nil
}

// PasswordConfigured возвращает true, если задан пароль или его хэш.
func (c *Config) PasswordConfigured() bool {
	return c.AdminPassword != "" || c.AdminPasswordHash != ""
}

// TLSEnabled возвращает true, если заданы сертификат и ключ.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// source — значения из окружения с подстановкой значений из файла.
type source struct {
	file map[string]string
}

// lookup возвращает значение переменной окружения, иначе значение из файла.
func (s source) lookup(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return s.file[key]
}

// getDefault возвращает значение или значение по умолчанию.
func (s source) getDefault(key, defaultVal string) string {
	val := s.lookup(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt возвращает целочисленное значение или значение по умолчанию.
func (s source) getInt(key string, defaultVal int) (int, error) {
	val := s.lookup(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getInt64 возвращает int64 или значение по умолчанию.
func (s source) getInt64(key string, defaultVal int64) (int64, error) {
	val := s.lookup(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getBool возвращает логическое значение или значение по умолчанию.
func (s source) getBool(key string, defaultVal bool) (bool, error) {
	val := s.lookup(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q (используйте true или false)", val)
	}
	return b, nil
}

// getDuration возвращает time.Duration или значение по умолчанию.
func (s source) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := s.lookup(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
