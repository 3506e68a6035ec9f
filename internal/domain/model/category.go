package model

// CategoryNode — узел дерева категорий. Не хранится на диске,
// вычисляется из реестра путей и категорий записей.
type CategoryNode struct {
	// Name — последний сегмент пути ("" у корня)
	Name string `json:"name"`
	// Path — полный путь ("" у корня)
	Path string `json:"path"`
	// Children — дочерние узлы в порядке отображения
	Children []*CategoryNode `json:"children"`
	// ItemCount — записи этого узла плюс записи всех потомков
	ItemCount int `json:"itemCount"`
}

// Find возвращает узел с указанным путём или nil.
func (n *CategoryNode) Find(path string) *CategoryNode {
	if n.Path == path {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// Walk обходит дерево в глубину (pre-order).
func (n *CategoryNode) Walk(fn func(*CategoryNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
