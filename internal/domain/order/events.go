package order

import "time"

// OrderCreatedEvent is a domain event emitted when checkout produces a new order.
type OrderCreatedEvent struct {
	Order      Order
	OccurredAt time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{Order: *o.Clone(), OccurredAt: time.Now().UTC()}
}

// OrderProofAttachedEvent is emitted when a customer submits payment proof.
// Admins are asked to review the order when it is handled.
type OrderProofAttachedEvent struct {
	Order      Order
	OccurredAt time.Time
}

func (OrderProofAttachedEvent) EventName() string { return "order.proof_attached" }

func NewOrderProofAttachedEvent(o *Order) OrderProofAttachedEvent {
	return OrderProofAttachedEvent{Order: *o.Clone(), OccurredAt: time.Now().UTC()}
}

// OrderApprovedEvent is emitted after approval side effects have been applied.
type OrderApprovedEvent struct {
	Order      Order
	ApprovedBy int64
	OccurredAt time.Time
}

func (OrderApprovedEvent) EventName() string { return "order.approved" }

func NewOrderApprovedEvent(o *Order, adminID int64) OrderApprovedEvent {
	return OrderApprovedEvent{Order: *o.Clone(), ApprovedBy: adminID, OccurredAt: time.Now().UTC()}
}

// OrderDeclinedEvent is emitted when an admin rejects the payment proof.
type OrderDeclinedEvent struct {
	Order      Order
	DeclinedBy int64
	OccurredAt time.Time
}

func (OrderDeclinedEvent) EventName() string { return "order.declined" }

func NewOrderDeclinedEvent(o *Order, adminID int64) OrderDeclinedEvent {
	return OrderDeclinedEvent{Order: *o.Clone(), DeclinedBy: adminID, OccurredAt: time.Now().UTC()}
}

// OrderStatusChangedEvent covers fulfillment progress (preparing, shipped, delivered).
type OrderStatusChangedEvent struct {
	Order      Order
	From       Status
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{Order: *o.Clone(), From: from, OccurredAt: time.Now().UTC()}
}
