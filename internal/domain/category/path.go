// Пакет category — операции над путями категорий и построение дерева.
//
// Категория — строка сегментов через "/", пустая строка — корень.
// Иерархия не хранится явно: родитель и потомки выводятся из префиксов.
// Все проверки "путь внутри поддерева" выполняются только через
// IsSelfOrDescendant, чтобы "a/b" не совпадал с "a/bc".
package category

import (
	"errors"
	"strings"
)

// Separator — разделитель сегментов пути.
const Separator = "/"

// Ошибки валидации сегмента.
var (
	// ErrEmptySegment — имя категории пустое
	ErrEmptySegment = errors.New("имя категории не может быть пустым")
	// ErrSeparatorInSegment — имя категории содержит "/"
	ErrSeparatorInSegment = errors.New("имя категории не может содержать \"/\"")
)

// Normalize приводит путь к каноническому виду: убирает пробелы
// вокруг сегментов и пустые сегменты ("/a//b/" → "a/b").
func Normalize(p string) string {
	parts := strings.Split(p, Separator)
	out := parts[:0]
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, Separator)
}

// ValidateSegment проверяет имя одного уровня категории.
func ValidateSegment(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptySegment
	}
	if strings.Contains(name, Separator) {
		return ErrSeparatorInSegment
	}
	return nil
}

// IsSelfOrDescendant возвращает true, если candidate совпадает с root
// или лежит в его поддереве. Корень ("") содержит любой путь.
func IsSelfOrDescendant(root, candidate string) bool {
	if root == "" {
		return true
	}
	return candidate == root || strings.HasPrefix(candidate, root+Separator)
}

// Rebase переносит путь p из поддерева from в поддерево to.
// Возвращает (p, false), если p не лежит в поддереве from.
//
//	Rebase("a/b/c", "a/b", "x")  → "x/c"
//	Rebase("a/b/c", "a/b", "")   → "c"
//	Rebase("a/bc",  "a/b", "x")  → "a/bc", false
func Rebase(p, from, to string) (string, bool) {
	if !IsSelfOrDescendant(from, p) {
		return p, false
	}
	if from == "" {
		return Join(to, p), true
	}
	rest := strings.TrimPrefix(p[len(from):], Separator)
	return Join(to, rest), true
}

// LastSegment возвращает последний сегмент пути ("" для корня).
func LastSegment(p string) string {
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Parent возвращает путь родителя ("" для верхнего уровня и корня).
func Parent(p string) string {
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[:i]
	}
	return ""
}

// Join соединяет родителя и хвост, корректно обрабатывая корень.
func Join(parent, rest string) string {
	switch {
	case parent == "":
		return rest
	case rest == "":
		return parent
	default:
		return parent + Separator + rest
	}
}

// Dedupe убирает пустые пути и повторы, сохраняя порядок первого появления.
func Dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Direction — направление перестановки среди соседей.
type Direction string

const (
	// DirectionUp — поменять местами с предыдущим соседом
	DirectionUp Direction = "up"
	// DirectionDown — поменять местами со следующим соседом
	DirectionDown Direction = "down"
)

// ParseDirection проверяет строку направления.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionUp, DirectionDown:
		return Direction(s), true
	default:
		return "", false
	}
}

// MoveSibling меняет местами path и его соседа (тот же родитель)
// в явном порядке. Исходный срез не изменяется.
// Возвращает false, если path нет в order или он уже на границе.
func MoveSibling(order []string, path string, dir Direction) ([]string, bool) {
	parent := Parent(path)

	// Позиции соседей в общем списке
	var siblings []int
	self := -1
	for i, p := range order {
		if Parent(p) != parent {
			continue
		}
		if p == path {
			self = len(siblings)
		}
		siblings = append(siblings, i)
	}
	if self < 0 {
		return order, false
	}

	other := self - 1
	if dir == DirectionDown {
		other = self + 1
	}
	if other < 0 || other >= len(siblings) {
		return order, false
	}

	out := append([]string(nil), order...)
	i, j := siblings[self], siblings[other]
	out[i], out[j] = out[j], out[i]
	return out, true
}
