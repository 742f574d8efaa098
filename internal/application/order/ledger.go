package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storebot/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storebot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService         = "order-service"
	useCaseOrderCreate   = "order.create"
	useCaseOrderCheckout = "order.checkout"
	useCaseAttachProof   = "order.attach_proof"
	useCaseApprove       = "order.approve"
	useCaseDecline       = "order.decline"
	useCaseSetStatus     = "order.set_status"
)

var (
	ErrNotFound          = domain.ErrNotFound
	ErrEmptyCart         = domain.ErrEmptyCart
	ErrIllegalTransition = domain.ErrInvalidStateTransition
	ErrUnknownStatus     = domain.ErrUnknownStatus
	ErrRepository        = errors.New("order: repository failure")
)

// Ledger owns the order lifecycle. Every mutation runs under the lock shared
// with the catalog and cart services, so approval side effects are applied
// atomically and at most once per order. Events are published after the
// lock is released.
type Ledger struct {
	orders      domain.Repository
	catalog     domcatalog.Repository
	carts       domcart.Repository
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	mu          sync.Locker
	inst        application.Instruments
}

func NewLedger(
	orders domain.Repository,
	catalog domcatalog.Repository,
	carts domcart.Repository,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	mu sync.Locker,
	tel observability.Observability,
) *Ledger {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Ledger{
		orders:      orders,
		catalog:     catalog,
		carts:       carts,
		idGenerator: idGen,
		publisher:   publisher,
		mu:          mu,
		inst:        application.NewInstruments(tel, orderService),
	}
}

type CreateOrderInput struct {
	Customer   domain.Customer
	ProductIDs []int
	Method     payment.Method
}

// Create snapshots the listed products into a new pending_proof order.
// Ids that no longer resolve are skipped; if none resolve the result is ErrEmptyCart.
func (l *Ledger) Create(ctx context.Context, in CreateOrderInput) (_ *domain.Order, err error) {
	ctx, run := l.inst.Start(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.Int64("order.user_id", in.Customer.UserID),
		attribute.String("order.payment_method", string(in.Method)),
	)
	defer func() { run.End(err) }()

	if _, err := payment.ParseMethod(string(in.Method)); err != nil {
		run.Fail("PAYMENT_METHOD_INVALID")
		return nil, application.Invalid(err)
	}

	l.mu.Lock()
	o, err := l.create(ctx, run, in)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	l.publish(ctx, run, domain.NewOrderCreatedEvent(o))
	return o, nil
}

// Checkout turns the user's cart into an order. The cart itself is kept until
// approval; an unpurchasable cart is cleared.
func (l *Ledger) Checkout(ctx context.Context, customer domain.Customer, method payment.Method) (_ *domain.Order, err error) {
	ctx, run := l.inst.Start(ctx, useCaseOrderCheckout, "Checkout",
		attribute.Int64("order.user_id", customer.UserID),
		attribute.String("order.payment_method", string(method)),
	)
	defer func() { run.End(err) }()

	if _, err := payment.ParseMethod(string(method)); err != nil {
		run.Fail("PAYMENT_METHOD_INVALID")
		return nil, application.Invalid(err)
	}

	l.mu.Lock()
	o, err := func() (*domain.Order, error) {
		ids, err := l.carts.Items(ctx, customer.UserID)
		if err != nil {
			run.Fail("CART_LOAD_FAILED")
			return nil, err
		}
		o, err := l.create(ctx, run, CreateOrderInput{Customer: customer, ProductIDs: ids, Method: method})
		if errors.Is(err, domain.ErrEmptyCart) {
			if clearErr := l.carts.Clear(ctx, customer.UserID); clearErr != nil {
				run.Logger().Warn("cart_clear_failed", observability.Err(clearErr))
			}
		}
		return o, err
	}()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	l.publish(ctx, run, domain.NewOrderCreatedEvent(o))
	return o, nil
}

// create must be called with l.mu held.
func (l *Ledger) create(ctx context.Context, run *application.Run, in CreateOrderInput) (*domain.Order, error) {
	items := make([]domain.LineItem, 0, len(in.ProductIDs))
	for _, id := range in.ProductIDs {
		p, err := l.catalog.Get(ctx, id)
		if errors.Is(err, domcatalog.ErrNotFound) {
			continue
		}
		if err != nil {
			run.Fail("CATALOG_LOOKUP_FAILED")
			return nil, wrapRepositoryError(err)
		}
		items = append(items, domain.LineItem{ProductID: p.ID, Name: p.Name, Price: p.Price})
	}

	entity, err := domain.New(l.idGenerator.NewID(), in.Customer, items, in.Method)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			run.Fail("EMPTY_CART")
			return nil, err
		}
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, fmt.Errorf("order: construct: %w", err)
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}
	if err := l.orders.Insert(ctx, entity); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Span().SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.String("order.status", string(entity.Status)),
	)
	run.Span().AddEvent("order.created", trace.WithAttributes(attribute.String("order.id", entity.ID)))
	run.With(observability.F("order_id", entity.ID), observability.F("total", entity.Total))
	return entity, nil
}

// AttachProof records the customer's payment proof. Repeating it while the
// order awaits approval replaces the stored reference.
func (l *Ledger) AttachProof(ctx context.Context, orderID, proofRef string) (_ *domain.Order, err error) {
	ctx, run := l.inst.Start(ctx, useCaseAttachProof, "AttachProof",
		attribute.String("order.id", orderID),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(proofRef) == "" {
		run.Fail("PROOF_REQUIRED")
		return nil, application.Validation("payment proof is required")
	}

	o, err := l.mutate(ctx, run, orderID, func(o *domain.Order) error {
		return o.AttachProof(proofRef)
	}, nil)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, run, domain.NewOrderProofAttachedEvent(o))
	return o, nil
}

// Approve confirms payment: the order becomes approved, each line item takes
// one unit of stock, and the customer's cart is emptied.
func (l *Ledger) Approve(ctx context.Context, orderID string, adminID int64) (_ *domain.Order, err error) {
	ctx, run := l.inst.Start(ctx, useCaseApprove, "ApproveOrder",
		attribute.String("order.id", orderID),
		attribute.Int64("admin.id", adminID),
	)
	defer func() { run.End(err) }()

	var depleted []domoutbox.Event
	o, err := l.mutate(ctx, run, orderID, func(o *domain.Order) error {
		if err := o.Approve(); err != nil {
			return err
		}
		// Read-only planning; nothing outside the order is written until it is stored.
		d, err := l.depletedBy(ctx, o)
		depleted = d
		return err
	}, func(o *domain.Order) {
		for _, item := range o.Items {
			if err := l.catalog.DecrementStock(ctx, item.ProductID, 1); err != nil {
				run.Logger().Warn("stock_decrement_failed",
					observability.F("product_id", item.ProductID),
					observability.Err(err),
				)
			}
		}
		if err := l.carts.Clear(ctx, o.Customer.UserID); err != nil {
			run.Logger().Warn("cart_clear_failed", observability.Err(err))
		}
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, run, domain.NewOrderApprovedEvent(o, adminID))
	for _, e := range depleted {
		l.publish(ctx, run, e)
	}
	return o, nil
}

// depletedBy reports the products whose stock the order's line items will use up.
func (l *Ledger) depletedBy(ctx context.Context, o *domain.Order) ([]domoutbox.Event, error) {
	need := make(map[int]int, len(o.Items))
	var ids []int
	for _, item := range o.Items {
		if need[item.ProductID] == 0 {
			ids = append(ids, item.ProductID)
		}
		need[item.ProductID]++
	}

	var depleted []domoutbox.Event
	for _, id := range ids {
		p, err := l.catalog.Get(ctx, id)
		if errors.Is(err, domcatalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, wrapRepositoryError(err)
		}
		if p.Stock > 0 && p.Stock <= need[id] {
			depleted = append(depleted, domcatalog.NewStockDepletedEvent(p, o.ID))
		}
	}
	return depleted, nil
}

func (l *Ledger) Decline(ctx context.Context, orderID string, adminID int64) (_ *domain.Order, err error) {
	ctx, run := l.inst.Start(ctx, useCaseDecline, "DeclineOrder",
		attribute.String("order.id", orderID),
		attribute.Int64("admin.id", adminID),
	)
	defer func() { run.End(err) }()

	o, err := l.mutate(ctx, run, orderID, func(o *domain.Order) error {
		return o.Decline()
	}, nil)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, run, domain.NewOrderDeclinedEvent(o, adminID))
	return o, nil
}

// SetStatus moves an order along the status graph. Approval and decline are
// routed through Approve and Decline so their side effects always apply.
func (l *Ledger) SetStatus(ctx context.Context, orderID, status string, adminID int64) (*domain.Order, error) {
	target, err := domain.ParseStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}
	switch target {
	case domain.StatusApproved:
		return l.Approve(ctx, orderID, adminID)
	case domain.StatusDeclined:
		return l.Decline(ctx, orderID, adminID)
	}
	return l.advance(ctx, orderID, target)
}

func (l *Ledger) advance(ctx context.Context, orderID string, to domain.Status) (_ *domain.Order, err error) {
	ctx, run := l.inst.Start(ctx, useCaseSetStatus, "SetOrderStatus",
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(to)),
	)
	defer func() { run.End(err) }()

	var from domain.Status
	o, err := l.mutate(ctx, run, orderID, func(o *domain.Order) error {
		from = o.Status
		return o.Advance(to)
	}, nil)
	if err != nil {
		return nil, err
	}
	run.With(observability.F("from", string(from)), observability.F("to", string(to)))

	l.publish(ctx, run, domain.NewOrderStatusChangedEvent(o, from))
	return o, nil
}

// mutate loads the order, applies fn and stores the result under the shared
// lock. fn must not write outside the order; after runs once the order is
// stored, still under the lock, and cannot fail the mutation.
func (l *Ledger) mutate(ctx context.Context, run *application.Run, orderID string, fn func(o *domain.Order) error, after func(o *domain.Order)) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, err := l.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("ORDER_NOT_FOUND")
			return nil, ErrNotFound
		}
		run.Fail("ORDER_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.With(observability.F("order_id", o.ID))

	if err := fn(o); err != nil {
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			run.Fail("STATE_TRANSITION_FAILED")
			return nil, fmt.Errorf("%w: order %s is %s", ErrIllegalTransition, o.ID, o.Status)
		}
		run.Fail("SIDE_EFFECT_FAILED")
		return nil, err
	}
	if err := l.orders.Update(ctx, o); err != nil {
		run.Fail("ORDER_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Span().SetAttributes(attribute.String("order.status", string(o.Status)))
	if after != nil {
		after(o)
	}
	return o, nil
}

// publish is best-effort; state is already committed.
func (l *Ledger) publish(ctx context.Context, run *application.Run, e domoutbox.Event) {
	if err := l.inst.Publish(ctx, l.publisher, e); err != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Span().RecordError(err)
		run.Logger().Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.Err(err),
		)
	}
}

func (l *Ledger) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return l.orders.Get(ctx, orderID)
}

// ForUser lists the user's orders in creation order.
func (l *Ledger) ForUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return l.orders.ListByUser(ctx, userID)
}

func (l *Ledger) All(ctx context.Context) ([]*domain.Order, error) {
	return l.orders.List(ctx)
}

// Pending lists orders awaiting an admin decision.
func (l *Ledger) Pending(ctx context.Context) ([]*domain.Order, error) {
	all, err := l.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(all))
	for _, o := range all {
		if o.Status == domain.StatusPendingApproval {
			out = append(out, o)
		}
	}
	return out, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return domain.ErrConflict
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
