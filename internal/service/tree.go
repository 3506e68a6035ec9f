// tree.go — TreeService: дерево категорий с LRU-кэшем.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/goartstore/archive/internal/domain/category"
	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// TreeService строит дерево категорий и кэширует результат.
// Ключ кэша — версии archive-data.json и categories.json и политика порядка,
// поэтому внешнее изменение файлов тоже приводит к перестроению.
// Любая запись через Repository очищает кэш.
//
// Возвращаемое дерево общее для всех вызывающих и не должно изменяться.
type TreeService struct {
	repo   *Repository
	policy category.OrderPolicy
	cache  *expirable.LRU[string, *model.CategoryNode]
}

// NewTreeService создаёт сервис дерева.
// maxSize — максимальное количество деревьев в кэше, ttl — время жизни.
func NewTreeService(repo *Repository, policy category.OrderPolicy, maxSize int, ttl time.Duration) *TreeService {
	ts := &TreeService{
		repo:   repo,
		policy: policy,
		cache:  expirable.NewLRU[string, *model.CategoryNode](maxSize, nil, ttl),
	}
	repo.OnChange(ts.Purge)
	return ts
}

// Tree возвращает дерево категорий. Ошибки чтения дают пустое дерево.
// Дерево кэшируется, только если документы не менялись во время построения.
func (t *TreeService) Tree(ctx context.Context) *model.CategoryNode {
	key := t.key()
	if root, ok := t.cache.Get(key); ok {
		treeCacheHitsTotal.Inc()
		return root
	}
	treeCacheMissesTotal.Inc()

	items := t.repo.readItems()
	cats := make([]string, len(items))
	for i := range items {
		cats[i] = items[i].Category
	}
	root := category.Build(cats, cleanRegistry(t.repo.readCategories()), t.policy)

	if t.key() == key {
		t.cache.Add(key, root)
	}
	return root
}

func (t *TreeService) key() string {
	return t.repo.docs.Revision(ItemsDoc) + "|" + t.repo.docs.Revision(CategoriesDoc) + "|" + string(t.policy)
}

// Purge очищает кэш.
func (t *TreeService) Purge() {
	t.cache.Purge()
}
