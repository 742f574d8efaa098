package order

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storebot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	ledger    *Ledger
	catalog   *memory.CatalogRepository
	carts     *memory.CartRepository
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	catalog := memory.NewCatalogRepository()
	carts := memory.NewCartRepository()
	pub := &recordingPublisher{}
	require.NoError(t, catalog.AddCategory(context.Background(), "Electronics"))

	ledger := NewLedger(memory.NewOrderRepository(), catalog, carts, id.NewOrderIDGenerator(), pub, &sync.Mutex{}, observability.Nop())
	return fixture{ledger: ledger, catalog: catalog, carts: carts, publisher: pub}
}

func (f fixture) product(t *testing.T, name string, price int64, stock int) *domcatalog.Product {
	t.Helper()
	ctx := context.Background()
	p, err := domcatalog.NewProduct(name, price, "d", "img", "Electronics")
	require.NoError(t, err)
	stored, err := f.catalog.AddProduct(ctx, p)
	require.NoError(t, err)
	stored, err = f.catalog.UpdateStock(ctx, stored.ID, stock)
	require.NoError(t, err)
	return stored
}

func (f fixture) stock(t *testing.T, productID int) int {
	t.Helper()
	p, err := f.catalog.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

var customer = domain.Customer{UserID: 7, Username: "abebe", DisplayName: "Abebe"}

func (f fixture) pendingApproval(t *testing.T, productIDs ...int) *domain.Order {
	t.Helper()
	ctx := context.Background()
	for _, pid := range productIDs {
		require.NoError(t, f.carts.Append(ctx, customer.UserID, pid))
	}
	o, err := f.ledger.Checkout(ctx, customer, payment.MethodTelebirr)
	require.NoError(t, err)
	o, err = f.ledger.AttachProof(ctx, o.ID, "photo-1")
	require.NoError(t, err)
	return o
}

func TestCheckoutCreatesPendingProofOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	b := f.product(t, "B", 250, 5)

	require.NoError(t, f.carts.Append(ctx, customer.UserID, a.ID))
	require.NoError(t, f.carts.Append(ctx, customer.UserID, b.ID))

	o, err := f.ledger.Checkout(ctx, customer, payment.MethodCBE)
	require.NoError(t, err)
	assert.Equal(t, "ORD1000", o.ID)
	assert.Equal(t, domain.StatusPendingProof, o.Status)
	assert.Equal(t, int64(350), o.Total)
	assert.Len(t, o.Items, 2)

	items, err := f.carts.Items(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 2, "cart survives checkout until approval")
	assert.Equal(t, []string{"order.created"}, f.publisher.names())
}

func TestCheckoutEmptyCartClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.carts.Append(ctx, customer.UserID, 404))

	_, err := f.ledger.Checkout(ctx, customer, payment.MethodCBE)
	assert.ErrorIs(t, err, ErrEmptyCart)

	items, err := f.carts.Items(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, items)

	all, err := f.ledger.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRejectsUnknownMethod(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 100, 5)

	_, err := f.ledger.Create(context.Background(), CreateOrderInput{
		Customer:   customer,
		ProductIDs: []int{p.ID},
		Method:     payment.Method("paypal"),
	})
	assert.ErrorIs(t, err, application.ErrValidation)
	assert.ErrorIs(t, err, payment.ErrUnknownMethod)
}

func TestSnapshotSurvivesCatalogChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Phone", 15000, 3)

	o, err := f.ledger.Create(ctx, CreateOrderInput{Customer: customer, ProductIDs: []int{p.ID}, Method: payment.MethodMPesa})
	require.NoError(t, err)

	_, err = f.catalog.UpdatePrice(ctx, p.ID, 1)
	require.NoError(t, err)
	_, err = f.catalog.RemoveProduct(ctx, p.ID)
	require.NoError(t, err)

	got, err := f.ledger.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), got.Items[0].Price)
	assert.Equal(t, "Phone", got.Items[0].Name)
	assert.Equal(t, int64(15000), got.Total)
}

func TestAttachProofIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "A", 100, 5)
	o := f.pendingApproval(t, p.ID)

	again, err := f.ledger.AttachProof(ctx, o.ID, "photo-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, again.Status)
	assert.Equal(t, "photo-2", again.ProofRef)

	_, err = f.ledger.AttachProof(ctx, "ORD9", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.ledger.AttachProof(ctx, o.ID, " ")
	assert.ErrorIs(t, err, application.ErrValidation)
}

func TestApproveAppliesSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	b := f.product(t, "B", 200, 1)
	o := f.pendingApproval(t, a.ID, a.ID, b.ID)

	approved, err := f.ledger.Approve(ctx, o.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	assert.Equal(t, 3, f.stock(t, a.ID))
	assert.Equal(t, 0, f.stock(t, b.ID))

	items, err := f.carts.Items(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Equal(t, []string{
		"order.created",
		"order.proof_attached",
		"order.approved",
		domcatalog.StockDepletedEvent{}.EventName(),
	}, f.publisher.names())
}

func TestApproveTwiceFailsWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	o := f.pendingApproval(t, a.ID)

	_, err := f.ledger.Approve(ctx, o.ID, 42)
	require.NoError(t, err)
	require.NoError(t, f.carts.Append(ctx, customer.UserID, a.ID))

	_, err = f.ledger.Approve(ctx, o.ID, 42)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 4, f.stock(t, a.ID))

	items, err := f.carts.Items(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestApproveRequiresProof(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)

	o, err := f.ledger.Create(ctx, CreateOrderInput{Customer: customer, ProductIDs: []int{a.ID}, Method: payment.MethodCoop})
	require.NoError(t, err)

	_, err = f.ledger.Approve(ctx, o.ID, 42)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 5, f.stock(t, a.ID))
}

func TestSetStatusCannotSkipProof(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)

	o, err := f.ledger.Create(ctx, CreateOrderInput{Customer: customer, ProductIDs: []int{a.ID}, Method: payment.MethodCBE})
	require.NoError(t, err)

	_, err = f.ledger.SetStatus(ctx, o.ID, "pending_approval", 42)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	got, err := f.ledger.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingProof, got.Status)
	assert.Empty(t, got.ProofRef)
}

func TestApproveSkipsRemovedProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	o := f.pendingApproval(t, a.ID)
	_, err := f.catalog.RemoveProduct(ctx, a.ID)
	require.NoError(t, err)

	approved, err := f.ledger.Approve(ctx, o.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
}

func TestDecline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	o := f.pendingApproval(t, a.ID)

	declined, err := f.ledger.Decline(ctx, o.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, declined.Status)
	assert.Equal(t, 5, f.stock(t, a.ID))

	items, err := f.carts.Items(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 1, "decline leaves the cart alone")

	_, err = f.ledger.Approve(ctx, o.ID, 42)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	o := f.pendingApproval(t, a.ID)

	_, err := f.ledger.SetStatus(ctx, o.ID, "lost", 42)
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = f.ledger.SetStatus(ctx, o.ID, "shipped", 42)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	approved, err := f.ledger.SetStatus(ctx, o.ID, "approved", 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.Equal(t, 4, f.stock(t, a.ID), "approval through SetStatus still decrements")

	for _, s := range []string{"preparing", "SHIPPED", "delivered"} {
		_, err := f.ledger.SetStatus(ctx, o.ID, s, 42)
		require.NoError(t, err, s)
	}

	got, err := f.ledger.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)

	_, err = f.ledger.SetStatus(ctx, "ORD404", "preparing", 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentApproveIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 10)
	o := f.pendingApproval(t, a.ID)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Approve(ctx, o.ID, 42); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, 9, f.stock(t, a.ID))
}

func TestPublishFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	o := f.pendingApproval(t, a.ID)
	f.publisher.err = errors.New("bus closed")

	approved, err := f.ledger.Approve(ctx, o.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.Equal(t, 4, f.stock(t, a.ID))
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)

	first := f.pendingApproval(t, a.ID)
	_, err := f.ledger.Create(ctx, CreateOrderInput{Customer: customer, ProductIDs: []int{a.ID}, Method: payment.MethodCBE})
	require.NoError(t, err)
	_, err = f.ledger.Create(ctx, CreateOrderInput{Customer: domain.Customer{UserID: 99}, ProductIDs: []int{a.ID}, Method: payment.MethodCBE})
	require.NoError(t, err)

	mine, err := f.ledger.ForUser(ctx, customer.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)

	pending, err := f.ledger.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	all, err := f.ledger.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

type failingUpdates struct {
	*memory.OrderRepository
}

func (failingUpdates) Update(context.Context, *domain.Order) error {
	return errors.New("disk full")
}

type failingDecrements struct {
	*memory.CatalogRepository
}

func (failingDecrements) DecrementStock(context.Context, int, int) error {
	return errors.New("catalog offline")
}

func TestApproveWritesNothingWhenOrderUpdateFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 5)
	orders := memory.NewOrderRepository()
	f.ledger = NewLedger(orders, f.catalog, f.carts, id.NewOrderIDGenerator(), f.publisher, &sync.Mutex{}, observability.Nop())
	o := f.pendingApproval(t, a.ID)

	f.ledger.orders = failingUpdates{OrderRepository: orders}
	_, err := f.ledger.Approve(ctx, o.ID, 42)
	assert.ErrorIs(t, err, ErrRepository)

	assert.Equal(t, 5, f.stock(t, a.ID))
	items, err := f.carts.Items(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	stored, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, stored.Status)
}

func TestApproveSurvivesStockWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product(t, "A", 100, 1)
	o := f.pendingApproval(t, a.ID)

	f.ledger.catalog = failingDecrements{CatalogRepository: f.catalog}
	approved, err := f.ledger.Approve(ctx, o.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	items, err := f.carts.Items(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
