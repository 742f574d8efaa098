package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService       = "catalog-service"
	useCaseAddCategory   = "catalog.add_category"
	useCaseAddProduct    = "catalog.add_product"
	useCaseRemoveProduct = "catalog.remove_product"
	useCaseUpdateStock   = "catalog.update_stock"
	useCaseUpdatePrice   = "catalog.update_price"
)

// Service is the admin-facing catalog API plus the read paths used by browsing.
type Service struct {
	repo domain.Repository
	// shared with the cart and order services
	mu   sync.Locker
	inst application.Instruments
}

func NewService(repo domain.Repository, mu sync.Locker, tel observability.Observability) *Service {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Service{
		repo: repo,
		mu:   mu,
		inst: application.NewInstruments(tel, catalogService),
	}
}

func (s *Service) AddCategory(ctx context.Context, name string) (err error) {
	ctx, run := s.inst.Start(ctx, useCaseAddCategory, "AddCategory")
	defer func() { run.End(err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		run.Fail("CATEGORY_NAME_REQUIRED")
		return application.Invalid(domain.ErrEmptyCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.AddCategory(ctx, name); err != nil {
		if errors.Is(err, domain.ErrDuplicateCategory) {
			run.Fail("CATEGORY_EXISTS")
		}
		return err
	}
	run.With(observability.F("category", name))
	return nil
}

type AddProductInput struct {
	Name        string
	Price       int64
	Description string
	Image       string
	Category    string
}

func (s *Service) AddProduct(ctx context.Context, in AddProductInput) (_ *domain.Product, err error) {
	ctx, run := s.inst.Start(ctx, useCaseAddProduct, "AddProduct",
		attribute.String("product.category", in.Category),
	)
	defer func() { run.End(err) }()

	p, err := domain.NewProduct(in.Name, in.Price, in.Description, in.Image, in.Category)
	if err != nil {
		run.Fail("PRODUCT_INVALID")
		return nil, application.Invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.AddProduct(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCategory) {
			run.Fail("CATEGORY_UNKNOWN")
		}
		return nil, err
	}
	run.Span().SetAttributes(attribute.Int("product.id", stored.ID))
	run.With(observability.F("product_id", stored.ID))
	return stored, nil
}

func (s *Service) RemoveProduct(ctx context.Context, id int) (_ *domain.Product, err error) {
	ctx, run := s.inst.Start(ctx, useCaseRemoveProduct, "RemoveProduct",
		attribute.Int("product.id", id),
	)
	defer func() { run.End(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.RemoveProduct(ctx, id)
	if err != nil {
		run.Fail(statusFor(err))
		return nil, err
	}
	return p, nil
}

// UpdateStock sets an absolute stock level; negatives become zero.
func (s *Service) UpdateStock(ctx context.Context, id int, stock int) (_ *domain.Product, err error) {
	ctx, run := s.inst.Start(ctx, useCaseUpdateStock, "UpdateStock",
		attribute.Int("product.id", id),
		attribute.Int("product.stock", stock),
	)
	defer func() { run.End(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.UpdateStock(ctx, id, stock)
	if err != nil {
		run.Fail(statusFor(err))
		return nil, err
	}
	return p, nil
}

// UpdatePrice changes the catalog price. Existing orders keep their snapshot.
func (s *Service) UpdatePrice(ctx context.Context, id int, price int64) (_ *domain.Product, err error) {
	ctx, run := s.inst.Start(ctx, useCaseUpdatePrice, "UpdatePrice",
		attribute.Int("product.id", id),
	)
	defer func() { run.End(err) }()

	if price <= 0 {
		run.Fail("PRICE_INVALID")
		return nil, application.Invalid(domain.ErrInvalidPrice)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.UpdatePrice(ctx, id, price)
	if err != nil {
		run.Fail(statusFor(err))
		return nil, err
	}
	return p, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) CategoryExists(ctx context.Context, name string) (bool, error) {
	return s.repo.CategoryExists(ctx, name)
}

func (s *Service) Products(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.Products(ctx)
}

func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	return s.repo.ByCategory(ctx, category)
}

func (s *Service) Product(ctx context.Context, id int) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidPrice):
		return "PRICE_INVALID"
	default:
		return "REPO_FAILED"
	}
}
