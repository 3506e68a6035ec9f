package service

import (
	"context"
	"testing"
)

// TestTree_CacheInvalidation проверяет, что изменения сбрасывают кэш дерева.
func TestTree_CacheInvalidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	// Первое чтение создаёт отсутствующие документы
	env.tree.Tree(ctx)

	first := env.tree.Tree(ctx)
	if first.ItemCount != 0 || len(first.Children) != 0 {
		t.Fatalf("ожидалось пустое дерево, получено %+v", first)
	}
	if second := env.tree.Tree(ctx); second != first {
		t.Error("повторный вызов без изменений должен вернуть дерево из кэша")
	}

	env.mustCreate(t, "A", "docs")

	third := env.tree.Tree(ctx)
	if third == first {
		t.Fatal("после изменения дерево должно быть перестроено")
	}
	if n := third.Find("docs"); n == nil || n.ItemCount != 1 {
		t.Error("docs: ожидался ItemCount 1")
	}
}

// TestTree_OrphanCountsOnlyInRoot проверяет учёт записей без категории.
func TestTree_OrphanCountsOnlyInRoot(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.mustCreate(t, "root item", "")
	env.mustCreate(t, "A", "a")

	root := env.tree.Tree(ctx)
	if root.ItemCount != 2 {
		t.Errorf("root.ItemCount: ожидалось 2, получено %d", root.ItemCount)
	}
	if len(root.Children) != 1 {
		t.Errorf("ожидался один узел верхнего уровня, получено %d", len(root.Children))
	}
}
