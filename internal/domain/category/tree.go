package category

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// OrderPolicy — политика порядка категорий.
type OrderPolicy string

const (
	// OrderExplicit — порядок задаётся сохранённым списком путей
	OrderExplicit OrderPolicy = "explicit"
	// OrderAlpha — алфавитный порядок на каждом уровне
	OrderAlpha OrderPolicy = "alpha"
)

// ParseOrderPolicy проверяет строку политики порядка.
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch OrderPolicy(s) {
	case OrderExplicit, OrderAlpha:
		return OrderPolicy(s), nil
	default:
		return "", fmt.Errorf("недопустимый порядок категорий %q, допустимые: explicit, alpha", s)
	}
}

// Build строит дерево категорий из реестра путей и категорий записей.
//
// itemCategories — категория каждой записи (по одной строке на запись),
// registered — пути реестра в сохранённом порядке.
// У каждого узла ItemCount = записи узла + сумма ItemCount детей.
// Записи с пустой категорией учитываются в корне.
func Build(itemCategories, registered []string, policy OrderPolicy) *model.CategoryNode {
	root := newNode("", "")
	nodes := map[string]*model.CategoryNode{"": root}
	rank := map[string]int{"": 0}

	paths := unionPaths(itemCategories, registered, policy)

	// Ранг пути — его позиция в списке; синтезированный предок
	// получает позицию первого потомка.
	for i, p := range paths {
		rank[p] = i
	}

	for i, p := range paths {
		segs := strings.Split(p, Separator)
		parent := root
		for depth := range segs {
			cur := strings.Join(segs[:depth+1], Separator)
			node, ok := nodes[cur]
			if !ok {
				node = newNode(segs[depth], cur)
				nodes[cur] = node
				if _, explicit := rank[cur]; !explicit {
					rank[cur] = i
				}
				parent.Children = append(parent.Children, node)
			}
			parent = node
		}
	}

	direct := make(map[string]int)
	for _, c := range itemCategories {
		if _, ok := nodes[c]; ok {
			direct[c]++
		}
	}
	countItems(root, direct)

	if policy == OrderAlpha {
		sortAlpha(root, collate.New(language.Und))
	} else {
		sortByRank(root, rank)
	}

	return root
}

// DirectCount возвращает число записей, категория которых равна path.
func DirectCount(itemCategories []string, path string) int {
	n := 0
	for _, c := range itemCategories {
		if c == path {
			n++
		}
	}
	return n
}

// unionPaths объединяет пути реестра и записей без "" и повторов.
// При явном порядке сначала идут пути реестра, затем отсортированные
// категории записей, отсутствующие в реестре.
func unionPaths(itemCategories, registered []string, policy OrderPolicy) []string {
	reg := Dedupe(registered)

	known := make(map[string]struct{}, len(reg))
	for _, p := range reg {
		known[p] = struct{}{}
	}

	var extra []string
	for _, c := range Dedupe(itemCategories) {
		if _, ok := known[c]; !ok {
			extra = append(extra, c)
		}
	}
	if policy == OrderExplicit {
		slices.Sort(extra)
	}

	return append(reg, extra...)
}

func newNode(name, path string) *model.CategoryNode {
	return &model.CategoryNode{Name: name, Path: path, Children: []*model.CategoryNode{}}
}

// countItems заполняет ItemCount снизу вверх и возвращает значение узла.
func countItems(n *model.CategoryNode, direct map[string]int) int {
	total := direct[n.Path]
	for _, c := range n.Children {
		total += countItems(c, direct)
	}
	n.ItemCount = total
	return total
}

func sortByRank(n *model.CategoryNode, rank map[string]int) {
	slices.SortStableFunc(n.Children, func(a, b *model.CategoryNode) int {
		return rank[a.Path] - rank[b.Path]
	})
	for _, c := range n.Children {
		sortByRank(c, rank)
	}
}

func sortAlpha(n *model.CategoryNode, col *collate.Collator) {
	slices.SortStableFunc(n.Children, func(a, b *model.CategoryNode) int {
		if r := col.CompareString(a.Name, b.Name); r != 0 {
			return r
		}
		return strings.Compare(a.Name, b.Name)
	})
	for _, c := range n.Children {
		sortAlpha(c, col)
	}
}
