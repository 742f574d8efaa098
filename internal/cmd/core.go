package cmd

import (
	"context"
	"fmt"
	"sync"

	appcart "github.com/Zhima-Mochi/minishop-storebot/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/minishop-storebot/internal/application/order"
	"github.com/Zhima-Mochi/minishop-storebot/internal/config"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/access"
	domoutbox "github.com/Zhima-Mochi/minishop-storebot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/seed"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

// core is the transport-independent part of the service: stores, services
// and the seeded catalog.
type core struct {
	catalog  *appcatalog.Service
	carts    *appcart.Service
	orders   *apporder.Ledger
	sessions *memory.SessionRepository
	policy   *access.Policy
	payments payment.Directory
	seeded   seed.Summary
}

func newCore(ctx context.Context, cfg *config.Config, publisher domoutbox.Publisher, tel observability.Observability) (*core, error) {
	payments, err := cfg.Payments()
	if err != nil {
		return nil, err
	}

	// one lock for every cross-store mutation
	var mu sync.Mutex
	catalogRepo := memory.NewCatalogRepository()
	cartRepo := memory.NewCartRepository()

	c := &core{
		catalog:  appcatalog.NewService(catalogRepo, &mu, tel),
		carts:    appcart.NewService(cartRepo, catalogRepo, &mu, tel),
		orders:   apporder.NewLedger(memory.NewOrderRepository(), catalogRepo, cartRepo, id.NewOrderIDGenerator(), publisher, &mu, tel),
		sessions: memory.NewSessionRepository(),
		policy:   access.NewPolicy(cfg.Admin.IDs...),
		payments: payments,
	}

	catalog, ok, err := seedCatalog(cfg)
	if err != nil {
		return nil, err
	}
	if ok {
		sum, err := seed.Apply(ctx, c.catalog, catalog)
		if err != nil {
			return nil, err
		}
		c.seeded = sum
	}
	return c, nil
}

// seedCatalog picks the seed file when configured, else the sample catalog
// when enabled.
func seedCatalog(cfg *config.Config) (seed.Catalog, bool, error) {
	switch {
	case cfg.Catalog.SeedFile != "":
		c, err := seed.Load(cfg.Catalog.SeedFile)
		if err != nil {
			return seed.Catalog{}, false, fmt.Errorf("load seed file: %w", err)
		}
		return c, true, nil
	case cfg.Catalog.SampleData:
		return seed.Default(), true, nil
	default:
		return seed.Catalog{}, false, nil
	}
}
