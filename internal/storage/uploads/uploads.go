// Пакет uploads — файлы, загруженные в архив (контент записей и обложки).
// Файлы лежат плоско в одной директории и адресуются ссылками вида
// /uploads/<token>-<name>, которые хранятся в записях архива.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Prefix — публичный префикс ссылок на загруженные файлы.
const Prefix = "/uploads/"

// maxNameRunes — ограничение длины очищенного имени файла.
const maxNameRunes = 100

// ErrTooLarge — размер файла превышает ARCHIVE_MAX_UPLOAD_SIZE.
var ErrTooLarge = errors.New("файл превышает допустимый размер")

// ErrInvalidRef — ссылка не указывает на директорию загрузок.
var ErrInvalidRef = errors.New("ссылка не относится к директории загрузок")

// Store — директория загруженных файлов.
type Store struct {
	// dir — директория загрузок (ARCHIVE_UPLOADS_DIR)
	dir string
	// maxSize — максимальный размер файла в байтах, 0 — без ограничения
	maxSize int64
	now     func() time.Time
}

// FileInfo — файл в директории загрузок.
type FileInfo struct {
	Ref     string
	Name    string
	Size    int64
	ModTime time.Time
}

// New создаёт Store. Директория создаётся лениво при первой записи.
func New(dir string, maxSize int64) *Store {
	return &Store{dir: dir, maxSize: maxSize, now: time.Now}
}

// Dir возвращает путь к директории загрузок.
func (s *Store) Dir() string {
	return s.dir
}

// MaxSize возвращает ограничение размера файла.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Save записывает данные из r в директорию загрузок.
// Возвращает ссылку /uploads/<unixMillis>-<uuid8>-<name> и размер.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке или превышении размера temp файл удаляется.
func (s *Store) Save(r io.Reader, originalName string) (string, int64, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("не удалось создать директорию загрузок %s: %w", s.dir, err)
	}

	name := s.storageName(originalName)
	fullPath := filepath.Join(s.dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		// Читаем на байт больше лимита, чтобы обнаружить превышение
		src = io.LimitReader(r, s.maxSize+1)
	}

	size, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if s.maxSize > 0 && size > s.maxSize {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("%w: больше %d байт", ErrTooLarge, s.maxSize)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return Prefix + name, size, nil
}

// Delete удаляет файл по ссылке.
// Ссылки вне /uploads/ игнорируются, отсутствующий файл — не ошибка.
func (s *Store) Delete(ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return nil
	}

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", ref, err)
	}
	return nil
}

// Exists проверяет существование файла по ссылке.
func (s *Store) Exists(ref string) bool {
	full, err := s.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// Open открывает файл по ссылке для чтения.
func (s *Store) Open(ref string) (*os.File, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Scan возвращает все файлы директории загрузок.
// Временные и скрытые файлы пропускаются. Отсутствующая директория — пустой список.
func (s *Store) Scan() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения директории загрузок %s: %w", s.dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Ref:     Prefix + name,
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// IsRef проверяет, что ссылка указывает на директорию загрузок.
func IsRef(ref string) bool {
	name, ok := strings.CutPrefix(ref, Prefix)
	return ok && name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}

// resolve превращает ссылку в путь на диске.
func (s *Store) resolve(ref string) (string, error) {
	if !IsRef(ref) {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.dir, strings.TrimPrefix(ref, Prefix)), nil
}

// storageName генерирует имя файла для хранения.
// Формат: {unixMillis}-{uuid8}-{name}
// Пример: 1760000000000-a1b2c3d4-report.pdf
func (s *Store) storageName(originalName string) string {
	ms := strconv.FormatInt(s.now().UnixMilli(), 10)
	uid := uuid.New().String()[:8]
	return ms + "-" + uid + "-" + Sanitize(originalName)
}

// Sanitize убирает из имени файла небезопасные символы.
// Буквы и цифры любых алфавитов сохраняются, пробелы заменяются на "_",
// разделители путей, управляющие символы и <>:"|?* отбрасываются.
func Sanitize(name string) string {
	// Только последний элемент пути
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	n := 0
	for _, r := range name {
		if n >= maxNameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r),
			r == '.', r == '-', r == '_', r == '(', r == ')':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			continue
		}
		n++
	}

	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
