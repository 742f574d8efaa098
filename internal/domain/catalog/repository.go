package catalog

import (
	"context"
)

// Repository owns categories and products. Implementations must make
// AddCategory and AddProduct atomic with respect to their own checks.
type Repository interface {
	AddCategory(ctx context.Context, name string) error
	CategoryExists(ctx context.Context, name string) (bool, error)
	Categories(ctx context.Context) ([]string, error)

	AddProduct(ctx context.Context, p *Product) (*Product, error)
	RemoveProduct(ctx context.Context, id int) (*Product, error)
	UpdateStock(ctx context.Context, id int, stock int) (*Product, error)
	UpdatePrice(ctx context.Context, id int, price int64) (*Product, error)
	// DecrementStock skips unknown ids without error.
	DecrementStock(ctx context.Context, id int, by int) error

	Get(ctx context.Context, id int) (*Product, error)
	ByCategory(ctx context.Context, category string) ([]*Product, error)
	Products(ctx context.Context) ([]*Product, error)
}
