// seed.go — начальное наполнение пустого архива примерами записей.
package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// Seed записывает items, если документ записей пуст, и регистрирует их категории.
// Возвращает число записанных записей (0 — архив не пуст).
func (s *ItemService) Seed(ctx context.Context, items []model.ArchiveItem) (int, error) {
	n, err := s.seed(items)
	observe("item_seed", err)
	if err == nil && n > 0 {
		s.logger.InfoContext(ctx, "Архив заполнен примерами", slog.Int("count", n))
	}
	return n, err
}

func (s *ItemService) seed(items []model.ArchiveItem) (int, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	existing, err := s.repo.loadItems()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 || len(items) == 0 {
		return 0, nil
	}
	registry, err := s.repo.loadCategories()
	if err != nil {
		return 0, err
	}

	if err := s.repo.saveItems(items); err != nil {
		return 0, err
	}
	for i := range items {
		if c := items[i].Category; c != "" && !slices.Contains(registry, c) {
			registry = append(registry, c)
		}
	}
	if err := s.repo.saveCategoriesAfterItems("item_seed", registry); err != nil {
		return len(items), err
	}
	return len(items), nil
}

// SampleItems возвращает демонстрационные записи для serve --seed.
func SampleItems() []model.ArchiveItem {
	text := func(s string) *string { return &s }
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	sample := func(id, title string, typ model.FileType, cat, desc, ts string) model.ArchiveItem {
		return model.ArchiveItem{
			ID: id, Title: title, Type: typ, Category: cat, Description: desc,
			CreatedAt: at(ts), UpdatedAt: at(ts),
		}
	}

	items := []model.ArchiveItem{
		sample("1", "Reflections on Modern Art", model.TypeText, "Writings", "Art History", "2023-05-20T14:48:00Z"),
		sample("2", "Architectural Sketch I", model.TypeImage, "Media", "Architecture", "2023-08-15T09:21:00Z"),
		sample("3", "Classical Piano Melody", model.TypeAudio, "Media", "Music", "2023-10-02T18:30:00Z"),
		sample("4", "The Art of Cinematography", model.TypeVideo, "Media", "Film", "2024-01-11T11:05:00Z"),
		sample("5", "Research Paper on AI Ethics", model.TypePDF, "Documents", "Technology", "2024-02-28T16:00:00Z"),
		sample("6", "Project Proposal Draft", model.TypeWord, "Documents", "Work", "2024-03-10T13:45:00Z"),
		sample("7", "Abstract Landscape", model.TypeImage, "Media", "Photography", "2023-11-05T12:10:00Z"),
		sample("8", "A Short Story", model.TypeText, "Writings", "Fiction", "2022-12-30T20:00:00Z"),
		sample("9", "Holiday Greetings", model.TypeText, "Holiday", "Seasonal Message", "2024-07-04T10:00:00Z"),
	}
	items[0].Content = text("Modern art represents an evolving set of ideas among a number of painters, sculptors, " +
		"photographers, performers, and writers who sought new approaches to art making. " +
		"This text explores the nuances of this transformative period.")
	items[1].URL = text("https://placehold.co/600x400.png")
	items[2].URL = text("https://storage.googleapis.com/studioprompt/s-5HJd3yrkfr.mp3")
	items[3].URL = text("https://storage.googleapis.com/studioprompt/v-d3d5182987.mp4")
	items[4].URL = text("#")
	items[5].URL = text("#")
	items[6].URL = text("https://placehold.co/600x401.png")
	items[7].Content = text("The old house stood on a hill overlooking the town. Its windows were like vacant eyes, " +
		"staring out at a world that had long since moved on. But for a curious few, it held secrets " +
		"of a time gone by, waiting to be rediscovered.")
	items[8].Content = text("Wishing everyone a happy and safe holiday season, full of joy and celebration.")
	return items
}
