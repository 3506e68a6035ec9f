package config

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// fileKeys — ключи TOML-файла (секция.ключ) и соответствующие переменные окружения.
// Пароль в открытом виде и ключ подписи сессий в файле не принимаются.
var fileKeys = map[string]string{
	"server.port":             "ARCHIVE_PORT",
	"server.log_level":        "ARCHIVE_LOG_LEVEL",
	"server.log_format":       "ARCHIVE_LOG_FORMAT",
	"server.tls_cert":         "ARCHIVE_TLS_CERT",
	"server.tls_key":          "ARCHIVE_TLS_KEY",
	"server.shutdown_timeout": "ARCHIVE_SHUTDOWN_TIMEOUT",

	"storage.data_dir":        "ARCHIVE_DATA_DIR",
	"storage.uploads_dir":     "ARCHIVE_UPLOADS_DIR",
	"storage.max_upload_size": "ARCHIVE_MAX_UPLOAD_SIZE",

	"auth.password_hash": "ADMIN_PASSWORD_HASH",
	"auth.session_ttl":   "ARCHIVE_SESSION_TTL",
	"auth.secure_cookie": "ARCHIVE_SECURE_COOKIE",

	"archive.require_description": "ARCHIVE_REQUIRE_DESCRIPTION",
	"archive.category_order":      "ARCHIVE_CATEGORY_ORDER",
	"archive.tree_cache_size":     "ARCHIVE_TREE_CACHE_SIZE",
	"archive.tree_cache_ttl":      "ARCHIVE_TREE_CACHE_TTL",
	"archive.reconcile_interval":  "ARCHIVE_RECONCILE_INTERVAL",
	"archive.orphan_grace":        "ARCHIVE_ORPHAN_GRACE",
}

// loadFile читает TOML-файл и возвращает значения, индексированные
// именами переменных окружения. Неизвестные ключи — ошибка.
func loadFile(path string) (map[string]string, error) {
	var doc map[string]map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}

	values := make(map[string]string)
	var unknown []string
	for section, table := range doc {
		for key, val := range table {
			name := section + "." + key
			env, ok := fileKeys[name]
			if !ok {
				unknown = append(unknown, name)
				continue
			}
			switch val.(type) {
			case string, int64, bool:
				values[env] = fmt.Sprint(val)
			default:
				return nil, fmt.Errorf("%s: недопустимый тип значения %T", name, val)
			}
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("неизвестные ключи в %s: %v", path, unknown)
	}
	return values, nil
}
