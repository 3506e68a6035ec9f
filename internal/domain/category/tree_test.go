package category

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// childNames возвращает имена детей узла в порядке отображения.
func childNames(n *model.CategoryNode) string {
	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return strings.Join(names, ",")
}

// checkCounts проверяет инвариант: ItemCount = прямые записи + сумма детей,
// и path ребёнка = path родителя + "/" + name.
func checkCounts(t *testing.T, n *model.CategoryNode, itemCategories []string) {
	t.Helper()
	sum := DirectCount(itemCategories, n.Path)
	for _, c := range n.Children {
		if c.Path != Join(n.Path, c.Name) {
			t.Errorf("узел %q: path не соответствует родителю %q и имени %q", c.Path, n.Path, c.Name)
		}
		sum += c.ItemCount
		checkCounts(t, c, itemCategories)
	}
	if n.ItemCount != sum {
		t.Errorf("узел %q: ItemCount = %d, ожидалось %d", n.Path, n.ItemCount, sum)
	}
}

// TestBuild_SingleItem проверяет сценарий docs/reports с одной записью.
func TestBuild_SingleItem(t *testing.T) {
	root := Build([]string{"docs/reports"}, nil, OrderExplicit)

	docs := root.Find("docs")
	if docs == nil {
		t.Fatal("узел docs не найден")
	}
	if len(docs.Children) != 1 || docs.Children[0].Name != "reports" {
		t.Fatalf("docs должен иметь единственного ребёнка reports, получено %q", childNames(docs))
	}
	if docs.ItemCount != 1 {
		t.Errorf("docs.ItemCount: ожидалось 1, получено %d", docs.ItemCount)
	}
	if docs.Children[0].ItemCount != 1 {
		t.Errorf("reports.ItemCount: ожидалось 1, получено %d", docs.Children[0].ItemCount)
	}
	if root.ItemCount != 1 {
		t.Errorf("root.ItemCount: ожидалось 1, получено %d", root.ItemCount)
	}
	if root.Path != "" || root.Name != "" {
		t.Errorf("корень должен иметь пустые path и name, получено %q/%q", root.Path, root.Name)
	}
}

// TestBuild_EmptyCategories проверяет, что пустые категории реестра видны в дереве.
func TestBuild_EmptyCategories(t *testing.T) {
	root := Build(nil, []string{"a", "a/b", "c/d/e"}, OrderExplicit)

	for _, p := range []string{"a", "a/b", "c", "c/d", "c/d/e"} {
		n := root.Find(p)
		if n == nil {
			t.Errorf("узел %q не найден", p)
			continue
		}
		if n.ItemCount != 0 {
			t.Errorf("узел %q: ожидался ItemCount 0, получено %d", p, n.ItemCount)
		}
	}
}

// TestBuild_RootCountsUncategorized проверяет учёт записей без категории в корне.
func TestBuild_RootCountsUncategorized(t *testing.T) {
	items := []string{"", "", "a", "a/b"}
	root := Build(items, []string{"a"}, OrderExplicit)

	if root.ItemCount != 4 {
		t.Errorf("root.ItemCount: ожидалось 4, получено %d", root.ItemCount)
	}
	if a := root.Find("a"); a == nil || a.ItemCount != 2 {
		t.Errorf("a.ItemCount: ожидалось 2")
	}
}

// TestBuild_NoDuplicateChildren проверяет, что повторы не создают дубликатов.
func TestBuild_NoDuplicateChildren(t *testing.T) {
	root := Build([]string{"a/b", "a/b", "a"}, []string{"a/b", "a", "a/b"}, OrderExplicit)

	if len(root.Children) != 1 {
		t.Fatalf("ожидался один ребёнок корня, получено %q", childNames(root))
	}
	if len(root.Children[0].Children) != 1 {
		t.Fatalf("ожидался один ребёнок a, получено %q", childNames(root.Children[0]))
	}
	checkCounts(t, root, []string{"a/b", "a/b", "a"})
}

// TestBuild_ExplicitOrder проверяет, что явный порядок реестра сохраняется,
// а категории только из записей добавляются в конец по алфавиту.
func TestBuild_ExplicitOrder(t *testing.T) {
	root := Build([]string{"zeta", "alpha"}, []string{"media", "docs", "media/video", "media/audio"}, OrderExplicit)

	if got := childNames(root); got != "media,docs,alpha,zeta" {
		t.Errorf("порядок корня: получено %q", got)
	}
	if got := childNames(root.Find("media")); got != "video,audio" {
		t.Errorf("порядок media: получено %q", got)
	}
}

// TestBuild_ExplicitOrderAfterReorder проверяет, что перестановка соседей
// отражается в дереве, даже если потомок стоит в списке раньше родителя.
func TestBuild_ExplicitOrderAfterReorder(t *testing.T) {
	order := []string{"a/x", "a", "b"}

	reordered, ok := MoveSibling(order, "b", DirectionUp)
	if !ok {
		t.Fatal("ожидалась успешная перестановка")
	}

	root := Build(nil, reordered, OrderExplicit)
	if got := childNames(root); got != "b,a" {
		t.Errorf("ожидался порядок b,a, получено %q", got)
	}
}

// TestBuild_AlphaOrder проверяет алфавитную сортировку на каждом уровне.
func TestBuild_AlphaOrder(t *testing.T) {
	root := Build(nil, []string{"media", "Docs", "archive", "media/video", "media/audio"}, OrderAlpha)

	if got := childNames(root); got != "archive,Docs,media" {
		t.Errorf("порядок корня: получено %q", got)
	}
	if got := childNames(root.Find("media")); got != "audio,video" {
		t.Errorf("порядок media: получено %q", got)
	}
}

// TestBuild_CountPropagation сверяет подсчёт с перебором на случайных наборах.
func TestBuild_CountPropagation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	segments := []string{"a", "b", "c", "bc"}

	randomPath := func() string {
		depth := rng.Intn(4)
		parts := make([]string, depth)
		for i := range parts {
			parts[i] = segments[rng.Intn(len(segments))]
		}
		return strings.Join(parts, "/")
	}

	for round := 0; round < 50; round++ {
		var items, registry []string
		for i := 0; i < rng.Intn(20); i++ {
			items = append(items, randomPath())
		}
		for i := 0; i < rng.Intn(10); i++ {
			registry = append(registry, randomPath())
		}

		for _, policy := range []OrderPolicy{OrderExplicit, OrderAlpha} {
			root := Build(items, registry, policy)
			checkCounts(t, root, items)
			if root.ItemCount != len(items) {
				t.Errorf("раунд %d: root.ItemCount = %d, ожидалось %d", round, root.ItemCount, len(items))
			}
		}
	}
}

// TestParseOrderPolicy проверяет разбор политики порядка.
func TestParseOrderPolicy(t *testing.T) {
	if _, err := ParseOrderPolicy("explicit"); err != nil {
		t.Errorf("explicit: неожиданная ошибка: %v", err)
	}
	if _, err := ParseOrderPolicy("alpha"); err != nil {
		t.Errorf("alpha: неожиданная ошибка: %v", err)
	}
	if _, err := ParseOrderPolicy("random"); err == nil {
		t.Error("random: ожидалась ошибка")
	}
}
