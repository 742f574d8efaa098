package memory

import (
	"context"
	"sync"
)

type CartRepository struct {
	mu    sync.RWMutex
	carts map[int64][]int
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[int64][]int),
	}
}

func (r *CartRepository) Append(ctx context.Context, userID int64, productID int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[userID] = append(r.carts[userID], productID)
	return nil
}

func (r *CartRepository) Items(ctx context.Context, userID int64) ([]int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]int{}, r.carts[userID]...), nil
}

func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, userID)
	return nil
}
