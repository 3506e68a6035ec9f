package service

import (
	"context"
	"slices"
	"testing"
)

func TestSeed_EmptyArchive(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	n, err := env.items.Seed(ctx, SampleItems())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 9 {
		t.Errorf("ожидалось 9 записей, получено %d", n)
	}

	items := env.items.List(ctx)
	if len(items) != 9 {
		t.Fatalf("ожидалось 9 записей в документе, получено %d", len(items))
	}
	cats := env.categories.List(ctx)
	for _, want := range []string{"Writings", "Media", "Documents", "Holiday"} {
		if !slices.Contains(cats, want) {
			t.Errorf("категория %q не зарегистрирована: %v", want, cats)
		}
	}
}

func TestSeed_NonEmptyArchiveUntouched(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.mustCreate(t, "Своя запись", "Личное")

	n, err := env.items.Seed(ctx, SampleItems())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 0 {
		t.Errorf("непустой архив не должен заполняться, записано %d", n)
	}
	if got := len(env.items.List(ctx)); got != 1 {
		t.Errorf("ожидалась 1 запись, получено %d", got)
	}
}

func TestSampleItems_Valid(t *testing.T) {
	ids := map[string]bool{}
	for _, it := range SampleItems() {
		if ids[it.ID] {
			t.Errorf("повторяющийся id %q", it.ID)
		}
		ids[it.ID] = true
		if it.Title == "" || it.CreatedAt.IsZero() {
			t.Errorf("запись %q заполнена не полностью", it.ID)
		}
		if it.Type.AcceptsContent() != (it.Content != nil) {
			t.Errorf("запись %q: content не соответствует типу %s", it.ID, it.Type)
		}
		if it.Type.RequiresFile() && it.URL == nil {
			t.Errorf("запись %q: для типа %s нужен url", it.ID, it.Type)
		}
	}
}

// TestSeed_ItemsEditable проверяет, что примеры можно править и переносить.
func TestSeed_ItemsEditable(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	if _, err := env.items.Seed(ctx, SampleItems()); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"2", "5", "6"} {
		if _, err := env.items.Update(ctx, id, UpdateParams{Title: strPtr("renamed " + id)}); err != nil {
			t.Errorf("Update(%s): %v", id, err)
		}
		if _, err := env.items.Move(ctx, id, "Archive"); err != nil {
			t.Errorf("Move(%s): %v", id, err)
		}
	}
}
