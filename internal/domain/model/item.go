// Пакет model — доменные модели цифрового архива.
// ArchiveItem — единая структура записи архива, используется
// как in-memory представление и как элемент archive-data.json на диске.
package model

import (
	"fmt"
	"time"
)

// FileType — тип содержимого записи архива.
type FileType string

const (
	// TypeText — текстовая запись (содержимое хранится inline)
	TypeText FileType = "text"
	// TypeImage — изображение
	TypeImage FileType = "image"
	// TypeAudio — аудиозапись
	TypeAudio FileType = "audio"
	// TypeVideo — видеозапись
	TypeVideo FileType = "video"
	// TypePDF — документ PDF
	TypePDF FileType = "pdf"
	// TypeWord — документ Word
	TypeWord FileType = "word"
)

// FileTypes — все допустимые типы в порядке отображения.
var FileTypes = []FileType{TypeText, TypeImage, TypeAudio, TypeVideo, TypePDF, TypeWord}

// ParseFileType проверяет строку и возвращает FileType.
func ParseFileType(s string) (FileType, error) {
	for _, t := range FileTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("недопустимый тип %q, допустимые: text, image, audio, video, pdf, word", s)
}

// AcceptsContent возвращает true, если тип хранит inline-текст.
// Для остальных типов поле content игнорируется.
func (t FileType) AcceptsContent() bool {
	return t == TypeText
}

// RequiresFile возвращает true, если при создании записи
// обязателен файл содержимого.
func (t FileType) RequiresFile() bool {
	return t != TypeText
}

// ArchiveItem — запись архива. Соответствует элементу archive-data.json.
type ArchiveItem struct {
	// ID — уникальный идентификатор (UUID v7, упорядочен по времени)
	ID string `json:"id"`

	// Title — заголовок (обязательный)
	Title string `json:"title"`

	// Type — тип содержимого
	Type FileType `json:"type"`

	// Category — путь категории через "/" ("" — корень)
	Category string `json:"category"`

	// Description — описание
	Description string `json:"description"`

	// CreatedAt — время создания (не меняется)
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt — время последнего изменения, включая
	// переименование и перенос категории
	UpdatedAt time.Time `json:"updatedAt"`

	// Content — inline-текст (только для type == text)
	Content *string `json:"content,omitempty"`

	// URL — ссылка на загруженный файл вида /uploads/<token>-<name>
	URL *string `json:"url,omitempty"`

	// Tags — теги в порядке ввода, без дедупликации
	Tags []string `json:"tags,omitempty"`

	// CoverImageURL — ссылка на обложку
	CoverImageURL *string `json:"coverImageUrl,omitempty"`
}

// Clone возвращает глубокую копию записи.
func (it *ArchiveItem) Clone() ArchiveItem {
	c := *it
	if it.Tags != nil {
		c.Tags = append([]string(nil), it.Tags...)
	}
	c.Content = cloneString(it.Content)
	c.URL = cloneString(it.URL)
	c.CoverImageURL = cloneString(it.CoverImageURL)
	return c
}

// FileRefs возвращает ссылки на все загруженные файлы записи.
func (it *ArchiveItem) FileRefs() []string {
	var refs []string
	if it.URL != nil && *it.URL != "" {
		refs = append(refs, *it.URL)
	}
	if it.CoverImageURL != nil && *it.CoverImageURL != "" {
		refs = append(refs, *it.CoverImageURL)
	}
	return refs
}

// HasTag проверяет наличие тега у записи.
func (it *ArchiveItem) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
