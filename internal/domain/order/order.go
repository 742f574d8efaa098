package order

import (
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: already exists")
	ErrEmptyCart              = errors.New("order: cart has no purchasable items")
	ErrUnknownStatus          = errors.New("order: unknown status")
	ErrInvalidStateTransition = errors.New("order: illegal status transition")
)

type Status string

const (
	StatusPendingProof    Status = "pending_proof"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusPreparing       Status = "preparing"
	StatusShipped         Status = "shipped"
	StatusDelivered       Status = "delivered"
	StatusDeclined        Status = "declined"
)

// ParseStatus accepts only members of the status enumeration.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := states[st]; !ok {
		return "", ErrUnknownStatus
	}
	return st, nil
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusDeclined
}

// LineItem is a snapshot of a product taken when the order was created.
type LineItem struct {
	ProductID int
	Name      string
	Price     int64
}

type Customer struct {
	UserID      int64
	Username    string
	DisplayName string
}

type Order struct {
	ID            string
	Customer      Customer
	Items         []LineItem
	Total         int64
	PaymentMethod payment.Method
	Status        Status
	ProofRef      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id string, customer Customer, items []LineItem, method payment.Method) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var total int64
	for _, it := range items {
		total += it.Price
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		Customer:      customer,
		Items:         append([]LineItem(nil), items...),
		Total:         total,
		PaymentMethod: method,
		Status:        StatusPendingProof,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AttachProof records the payment proof and moves the order to pending approval.
// Re-attaching while still pending approval replaces the proof.
func (o *Order) AttachProof(ref string) error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnProofAttached(o, ref) })
}

func (o *Order) Approve() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnApproved(o) })
}

func (o *Order) Decline() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnDeclined(o) })
}

// Advance moves an approved order through fulfillment one stage at a time.
func (o *Order) Advance(to Status) error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnAdvance(o, to) })
}

func (o *Order) apply(transition func(OrderState) (OrderState, error)) error {
	current, ok := states[o.Status]
	if !ok {
		return ErrUnknownStatus
	}
	next, err := transition(current)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
