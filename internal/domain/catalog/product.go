package catalog

import (
	"errors"
	"strings"
	"time"
)

// DefaultStock is the number of units a freshly added product starts with.
const DefaultStock = 10

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrOutOfStock        = errors.New("catalog: product out of stock")
	ErrInvalidPrice      = errors.New("catalog: price must be a positive integer")
	ErrMissingField      = errors.New("catalog: all product fields are required")
	ErrEmptyCategory     = errors.New("catalog: category name is required")
	ErrDuplicateCategory = errors.New("catalog: category already exists")
	ErrUnknownCategory   = errors.New("catalog: category does not exist")
)

// SameCategory reports whether two category names refer to the same category.
func SameCategory(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

type Product struct {
	ID          int
	Name        string
	Price       int64
	Description string
	Image       string
	Category    string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct validates the admin-supplied fields. The id is assigned by the repository.
func NewProduct(name string, price int64, description, image, category string) (*Product, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	image = strings.TrimSpace(image)
	category = strings.TrimSpace(category)
	if name == "" || description == "" || image == "" || category == "" {
		return nil, ErrMissingField
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	now := time.Now().UTC()
	return &Product{
		Name:        name,
		Price:       price,
		Description: description,
		Image:       image,
		Category:    category,
		Stock:       DefaultStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Product) InStock() bool { return p.Stock > 0 }

// SetStock replaces the stock level, clamping negatives to zero.
func (p *Product) SetStock(stock int) {
	p.Stock = max(0, stock)
	p.touch()
}

// Decrement removes units from stock and never goes below zero.
func (p *Product) Decrement(by int) {
	if by <= 0 {
		return
	}
	p.Stock = max(0, p.Stock-by)
	p.touch()
}

func (p *Product) SetPrice(price int64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	p.Price = price
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
