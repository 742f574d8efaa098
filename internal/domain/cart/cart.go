package cart

import "context"

// Repository keeps one ordered list of product ids per user. Each occurrence
// of an id is one requested unit. Append does no validation.
type Repository interface {
	Append(ctx context.Context, userID int64, productID int) error
	// Items never fails for unknown users; they simply have an empty cart.
	Items(ctx context.Context, userID int64) ([]int, error)
	Clear(ctx context.Context, userID int64) error
}
