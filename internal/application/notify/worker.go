package notify

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storebot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const workerService = "notify-worker"

// Worker turns order lifecycle events into chat notifications.
type Worker struct {
	subscriber domoutbox.Subscriber
	deliver    application.UseCase[Message, *DeliveryResult]
	composer   Composer
	admins     AdminDirectory
	inst       application.Instruments
}

func NewWorker(
	subscriber domoutbox.Subscriber,
	deliver application.UseCase[Message, *DeliveryResult],
	composer Composer,
	admins AdminDirectory,
	tel observability.Observability,
) *Worker {
	return &Worker{
		subscriber: subscriber,
		deliver:    deliver,
		composer:   composer,
		admins:     admins,
		inst:       application.NewInstruments(tel, workerService),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.deliver == nil || w.composer == nil {
		return
	}
	domoutbox.Subscribe(w.subscriber, w.handleProofAttached)
	domoutbox.Subscribe(w.subscriber, w.handleApproved)
	domoutbox.Subscribe(w.subscriber, w.handleDeclined)
	domoutbox.Subscribe(w.subscriber, w.handleStatusChanged)
	domoutbox.Subscribe(w.subscriber, w.handleStockDepleted)
}

func (w *Worker) handleProofAttached(ctx context.Context, evt domorder.OrderProofAttachedEvent) error {
	var msgs []Message
	for _, admin := range w.adminIDs() {
		msgs = append(msgs, w.composer.ProofSubmitted(evt.Order, admin)...)
	}
	return w.dispatch(ctx, "notify.worker.proof_attached", "ProofAttached", evt, evt.Order.ID, msgs)
}

func (w *Worker) handleApproved(ctx context.Context, evt domorder.OrderApprovedEvent) error {
	return w.dispatch(ctx, "notify.worker.order_approved", "OrderApproved", evt, evt.Order.ID,
		[]Message{w.composer.OrderApproved(evt.Order)})
}

func (w *Worker) handleDeclined(ctx context.Context, evt domorder.OrderDeclinedEvent) error {
	return w.dispatch(ctx, "notify.worker.order_declined", "OrderDeclined", evt, evt.Order.ID,
		[]Message{w.composer.OrderDeclined(evt.Order)})
}

func (w *Worker) handleStatusChanged(ctx context.Context, evt domorder.OrderStatusChangedEvent) error {
	return w.dispatch(ctx, "notify.worker.status_changed", "OrderStatusChanged", evt, evt.Order.ID,
		[]Message{w.composer.StatusChanged(evt.Order, evt.From)})
}

func (w *Worker) handleStockDepleted(ctx context.Context, evt domcatalog.StockDepletedEvent) error {
	var msgs []Message
	for _, admin := range w.adminIDs() {
		msgs = append(msgs, w.composer.StockDepleted(evt, admin))
	}
	return w.dispatch(ctx, "notify.worker.stock_depleted", "StockDepleted", evt, evt.OrderID, msgs)
}

// dispatch delivers each message independently; one unreachable recipient
// does not stop the others.
func (w *Worker) dispatch(ctx context.Context, useCase, spanName string, e domoutbox.Event, orderID string, msgs []Message) (err error) {
	ctx, run := w.inst.Start(ctx, useCase, spanName,
		attribute.String("event", e.EventName()),
		attribute.String("order.id", orderID),
	)
	defer func() { run.End(err) }()
	run.With(observability.F("order_id", orderID), observability.F("messages", len(msgs)))

	failed := 0
	for _, m := range msgs {
		if _, derr := w.deliver.Execute(ctx, m); derr != nil {
			failed++
		}
	}
	if failed > 0 {
		run.Fail("PARTIAL_DELIVERY")
		return fmt.Errorf("notify: %d of %d messages undelivered", failed, len(msgs))
	}
	return nil
}

func (w *Worker) adminIDs() []int64 {
	if w.admins == nil {
		return nil
	}
	return w.admins.Admins()
}
