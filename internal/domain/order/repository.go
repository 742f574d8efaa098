package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	// ListByUser returns the user's orders in creation order.
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	List(ctx context.Context) ([]*Order, error)
}
