package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
)

type CatalogRepository struct {
	mu         sync.RWMutex
	categories []string
	products   map[int]*domain.Product
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		products: make(map[int]*domain.Product),
	}
}

func (r *CatalogRepository) AddCategory(ctx context.Context, name string) error {
	_ = ctx
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyCategory
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasCategory(name) {
		return domain.ErrDuplicateCategory
	}
	r.categories = append(r.categories, name)
	return nil
}

func (r *CatalogRepository) CategoryExists(ctx context.Context, name string) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.hasCategory(name), nil
}

func (r *CatalogRepository) Categories(ctx context.Context) ([]string, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.categories...), nil
}

// AddProduct assigns id max(existing)+1 and stores the product under the
// category's canonical spelling.
func (r *CatalogRepository) AddProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	_ = ctx
	if p == nil {
		return nil, domain.ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	canonical, ok := r.canonicalCategory(p.Category)
	if !ok {
		return nil, domain.ErrUnknownCategory
	}

	next := 0
	for id := range r.products {
		next = max(next, id)
	}

	stored := p.Clone()
	stored.ID = next + 1
	stored.Category = canonical
	r.products[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *CatalogRepository) RemoveProduct(ctx context.Context, id int) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.products, id)
	return p.Clone(), nil
}

func (r *CatalogRepository) UpdateStock(ctx context.Context, id int, stock int) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.SetStock(stock)
	return p.Clone(), nil
}

func (r *CatalogRepository) UpdatePrice(ctx context.Context, id int, price int64) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := p.SetPrice(price); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (r *CatalogRepository) DecrementStock(ctx context.Context, id int, by int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.products[id]; ok {
		p.Decrement(by)
	}
	return nil
}

func (r *CatalogRepository) Get(ctx context.Context, id int) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *CatalogRepository) ByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0)
	for _, p := range r.products {
		if domain.SameCategory(p.Category, category) {
			out = append(out, p.Clone())
		}
	}
	sortByID(out)
	return out, nil
}

func (r *CatalogRepository) Products(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	sortByID(out)
	return out, nil
}

func (r *CatalogRepository) hasCategory(name string) bool {
	_, ok := r.canonicalCategory(name)
	return ok
}

func (r *CatalogRepository) canonicalCategory(name string) (string, bool) {
	for _, c := range r.categories {
		if domain.SameCategory(c, name) {
			return c, true
		}
	}
	return "", false
}

func sortByID(ps []*domain.Product) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
