package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storebot/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService      = "cart-service"
	useCaseCartAdd   = "cart.add"
	useCaseCartClear = "cart.clear"
)

type Service struct {
	carts   domcart.Repository
	catalog domcatalog.Repository
	mu      sync.Locker
	inst    application.Instruments
}

func NewService(carts domcart.Repository, catalog domcatalog.Repository, mu sync.Locker, tel observability.Observability) *Service {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Service{
		carts:   carts,
		catalog: catalog,
		mu:      mu,
		inst:    application.NewInstruments(tel, cartService),
	}
}

// Add appends one unit of productID to the user's cart. Stock is checked but
// not reserved.
func (s *Service) Add(ctx context.Context, userID int64, productID int) (_ *domcatalog.Product, err error) {
	ctx, run := s.inst.Start(ctx, useCaseCartAdd, "AddToCart",
		attribute.Int64("user.id", userID),
		attribute.Int("product.id", productID),
	)
	defer func() { run.End(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			run.Fail("PRODUCT_NOT_FOUND")
		}
		return nil, err
	}
	if !p.InStock() {
		run.Fail("OUT_OF_STOCK")
		return nil, domcatalog.ErrOutOfStock
	}
	if err := s.carts.Append(ctx, userID, productID); err != nil {
		run.Fail("CART_APPEND_FAILED")
		return nil, err
	}
	return p, nil
}

func (s *Service) Items(ctx context.Context, userID int64) ([]int, error) {
	return s.carts.Items(ctx, userID)
}

// Line is one cart entry resolved against the current catalog.
type Line struct {
	ProductID int
	Name      string
	Price     int64
}

type View struct {
	Lines []Line
	Total int64
}

func (v View) Empty() bool { return len(v.Lines) == 0 }

// View resolves the cart at current catalog prices. Entries whose product
// has since been removed are skipped.
func (s *Service) View(ctx context.Context, userID int64) (View, error) {
	ids, err := s.carts.Items(ctx, userID)
	if err != nil {
		return View{}, err
	}

	var v View
	for _, id := range ids {
		p, err := s.catalog.Get(ctx, id)
		if errors.Is(err, domcatalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return View{}, err
		}
		v.Lines = append(v.Lines, Line{ProductID: p.ID, Name: p.Name, Price: p.Price})
		v.Total += p.Price
	}
	return v, nil
}

func (s *Service) Clear(ctx context.Context, userID int64) (err error) {
	ctx, run := s.inst.Start(ctx, useCaseCartClear, "ClearCart",
		attribute.Int64("user.id", userID),
	)
	defer func() { run.End(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.carts.Clear(ctx, userID)
}
