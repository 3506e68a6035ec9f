package service

import (
	"context"
	"errors"
	"testing"
)

// TestPeople_CRUD проверяет добавление, изменение и удаление имён.
func TestPeople_CRUD(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	empty := env.people.List(ctx)
	if len(empty.Memorial) != 0 || len(empty.Healing) != 0 {
		t.Fatalf("ожидались пустые списки, получено %+v", empty)
	}

	a, err := env.people.Add(ctx, "memorial", "  Сара  ")
	if err != nil {
		t.Fatalf("ошибка Add: %v", err)
	}
	if a.Name != "Сара" || a.ID == "" {
		t.Errorf("ожидалось имя Сара с ID, получено %+v", a)
	}
	b, err := env.people.Add(ctx, "memorial", "Давид")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Error("ID должны быть уникальны")
	}
	if _, err := env.people.Add(ctx, "healing", "Рут"); err != nil {
		t.Fatal(err)
	}

	updated, err := env.people.Update(ctx, "memorial", a.ID, "Сарра")
	if err != nil {
		t.Fatalf("ошибка Update: %v", err)
	}
	if updated.Name != "Сарра" || updated.ID != a.ID {
		t.Errorf("получено %+v", updated)
	}

	if err := env.people.Delete(ctx, "memorial", b.ID); err != nil {
		t.Fatalf("ошибка Delete: %v", err)
	}

	got := env.people.List(ctx)
	if len(got.Memorial) != 1 || got.Memorial[0].Name != "Сарра" {
		t.Errorf("memorial: получено %+v", got.Memorial)
	}
	if len(got.Healing) != 1 || got.Healing[0].Name != "Рут" {
		t.Errorf("healing: получено %+v", got.Healing)
	}
}

// TestPeople_Errors проверяет ошибки валидации и неизвестные ID.
func TestPeople_Errors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	if _, err := env.people.Add(ctx, "friends", "x"); !errors.Is(err, ErrValidation) {
		t.Errorf("неизвестный список: ожидалась ErrValidation, получено %v", err)
	}
	if _, err := env.people.Add(ctx, "healing", " "); !errors.Is(err, ErrValidation) {
		t.Errorf("пустое имя: ожидалась ErrValidation, получено %v", err)
	}
	if _, err := env.people.Update(ctx, "healing", "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: ожидалась ErrNotFound, получено %v", err)
	}
	if err := env.people.Delete(ctx, "healing", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: ожидалась ErrNotFound, получено %v", err)
	}

	// ID из другого списка не найден
	p, err := env.people.Add(ctx, "memorial", "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.people.Delete(ctx, "healing", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("чужой список: ожидалась ErrNotFound, получено %v", err)
	}
}
