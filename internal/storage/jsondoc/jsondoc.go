// Пакет jsondoc — чтение и запись JSON-документов архива
// (archive-data.json, categories.json, people.json).
//
// Документ читается и записывается целиком. Отсутствующий файл
// считается пустой коллекцией и создаётся при первом чтении.
// Запись атомарна: temp → fsync → rename, читатель никогда
// не видит частично записанный файл.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// ErrCorrupt — файл существует, но содержит невалидный JSON.
var ErrCorrupt = errors.New("повреждённый JSON-документ")

// Store — каталог с JSON-документами.
type Store struct {
	// dir — корневая директория документов (ARCHIVE_DATA_DIR)
	dir string
}

// New создаёт Store. Директория создаётся лениво при первой записи.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir возвращает путь к директории документов.
func (s *Store) Dir() string {
	return s.dir
}

// Path возвращает полный путь к документу.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load читает документ name в значение типа T.
// Если файла нет — записывает empty и возвращает его.
// Пустой (или только из пробелов) файл также даёт empty.
func Load[T any](s *Store, name string, empty T) (T, error) {
	path := s.Path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if werr := create(s, name, empty); werr != nil {
				return empty, werr
			}
			return empty, nil
		}
		return empty, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return empty, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return empty, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return v, nil
}

// Save сериализует v с отступами и атомарно записывает документ.
// Паттерн: JSON → temp файл → fsync → atomic rename.
func Save[T any](s *Store, name string, v T) error {
	tmpPath, err := writeTemp(s, name, v)
	if err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.Path(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}
	return nil
}

// create записывает документ, только если его ещё нет.
// Hard link не перезаписывает существующий файл, поэтому
// параллельная запись не теряется.
func create[T any](s *Store, name string, v T) error {
	tmpPath, err := writeTemp(s, name, v)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if err := os.Link(tmpPath, s.Path(name)); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("ошибка создания %s: %w", name, err)
	}
	return nil
}

// writeTemp сериализует v во временный файл рядом с документом
// и возвращает его путь. Данные сброшены на диск (fsync).
func writeTemp[T any](s *Store, name string, v T) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации %s: %w", name, err)
	}

	// Создаём директорию если не существует
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("не удалось создать директорию %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o640); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка установки прав: %w", err)
	}

	return tmpPath, nil
}

// Revision возвращает метку версии документа (размер + mtime).
// Для отсутствующего файла возвращает "0".
// Используется как ключ кэша, а не как гарантия целостности.
func (s *Store) Revision(name string) string {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return "0"
	}
	return strconv.FormatInt(info.Size(), 36) + "." + strconv.FormatInt(info.ModTime().UnixNano(), 36)
}
