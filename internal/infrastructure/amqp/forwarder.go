package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storebot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability/logctx"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

const (
	componentForwarder = "amqp_forwarder"
	peerRabbitMQ       = "rabbitmq"
	exchangeKind       = "topic"
	confirmTimeout     = 5 * time.Second
)

var (
	ErrNotConfirmed   = errors.New("amqp: publish not confirmed by broker")
	ErrConfirmTimeout = errors.New("amqp: publish confirmation timeout")
)

// Channel is the subset of *amqp.Channel the forwarder needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Forwarder republishes order lifecycle events to a durable topic exchange,
// routed by event name.
type Forwarder struct {
	ch       Channel
	conn     *amqp.Connection
	exchange string
	// publishes are serialized; published is the delivery tag of the last one
	mu          sync.Mutex
	published   uint64
	confirms    chan amqp.Confirmation
	confirmWait time.Duration
	log         observability.Logger

	extCounter   observability.Counter
	extHistogram observability.Histogram
}

// Dial connects to the broker and prepares a confirming channel.
func Dial(url, exchange string, tel observability.Observability) (*Forwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}
	f, err := NewForwarder(ch, exchange, tel)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	f.conn = conn
	return f, nil
}

func NewForwarder(ch Channel, exchange string, tel observability.Observability) (*Forwarder, error) {
	if tel == nil {
		tel = observability.Nop()
	}
	if err := ch.ExchangeDeclare(
		exchange,     // name
		exchangeKind, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		return nil, fmt.Errorf("amqp: declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("amqp: confirm mode: %w", err)
	}

	metrics := tel.Metrics()
	return &Forwarder{
		ch:           ch,
		exchange:     exchange,
		confirms:     ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		confirmWait:  confirmTimeout,
		log:          tel.Logger().With(observability.F("component", componentForwarder)),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}, nil
}

// Start subscribes to every event the forwarder knows how to encode.
func (f *Forwarder) Start(sub domoutbox.Subscriber) {
	for _, name := range []string{
		domorder.OrderCreatedEvent{}.EventName(),
		domorder.OrderProofAttachedEvent{}.EventName(),
		domorder.OrderApprovedEvent{}.EventName(),
		domorder.OrderDeclinedEvent{}.EventName(),
		domorder.OrderStatusChangedEvent{}.EventName(),
		domcatalog.StockDepletedEvent{}.EventName(),
	} {
		sub.Subscribe(name, f.handle)
	}
	f.log.Info("amqp_forwarder_started", observability.F("exchange", f.exchange))
}

func (f *Forwarder) handle(ctx context.Context, e domoutbox.Event) error {
	env, ok := Encode(e)
	if !ok {
		return nil
	}
	logger := logctx.FromOr(ctx, f.log).With(
		observability.F("event", env.Event),
		observability.F("event_id", env.EventID),
	)

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("amqp: marshal %s: %w", env.Event, err)
	}

	start := time.Now()
	err = f.publish(ctx, env, body)
	outcome := "success"
	if err != nil {
		outcome = "error"
		logger.Warn("amqp_publish_failed", observability.Err(err))
	} else {
		logger.Debug("amqp_published")
	}
	f.observe(env.Event, outcome, time.Since(start))
	return err
}

func (f *Forwarder) publish(ctx context.Context, env Envelope, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.ch.Publish(
		f.exchange, // exchange
		env.Event,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.EventID,
			Timestamp:    env.OccurredAt,
			Type:         env.Event,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp: publish %s: %w", env.Event, err)
	}

	f.published++
	tag := f.published

	timer := time.NewTimer(f.confirmWait)
	defer timer.Stop()
	for {
		select {
		case confirm, ok := <-f.confirms:
			if !ok {
				return ErrNotConfirmed
			}
			// Late confirmation for a publish that already gave up waiting.
			if confirm.DeliveryTag < tag {
				continue
			}
			if !confirm.Ack {
				return ErrNotConfirmed
			}
			return nil
		case <-timer.C:
			return ErrConfirmTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *Forwarder) observe(endpoint, outcome string, d time.Duration) {
	f.extCounter.Add(1,
		observability.L("peer", peerRabbitMQ),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	f.extHistogram.Observe(d.Seconds(),
		observability.L("peer", peerRabbitMQ),
		observability.L("endpoint", endpoint),
	)
}

func (f *Forwarder) Close() error {
	err := f.ch.Close()
	if f.conn != nil && !f.conn.IsClosed() {
		err = errors.Join(err, f.conn.Close())
	}
	f.log.Info("amqp_forwarder_stopped")
	return err
}

// Envelope is the wire format published to the exchange.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Order      *OrderPayload   `json:"order,omitempty"`
	Product    *ProductPayload `json:"product,omitempty"`
	FromStatus string          `json:"from_status,omitempty"`
	ActorID    int64           `json:"actor_id,omitempty"`
}

type OrderPayload struct {
	ID            string        `json:"id"`
	UserID        int64         `json:"user_id"`
	Username      string        `json:"username,omitempty"`
	Status        string        `json:"status"`
	PaymentMethod string        `json:"payment_method"`
	Total         int64         `json:"total"`
	Items         []LinePayload `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type LinePayload struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
}

type ProductPayload struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	OrderID string `json:"order_id,omitempty"`
}

// Encode maps a domain event to its envelope. Unknown events report false.
func Encode(e domoutbox.Event) (Envelope, bool) {
	env := Envelope{EventID: uuid.NewString(), Event: e.EventName()}
	switch evt := e.(type) {
	case domorder.OrderCreatedEvent:
		env.OccurredAt, env.Order = evt.OccurredAt, orderPayload(evt.Order)
	case domorder.OrderProofAttachedEvent:
		env.OccurredAt, env.Order = evt.OccurredAt, orderPayload(evt.Order)
	case domorder.OrderApprovedEvent:
		env.OccurredAt, env.Order, env.ActorID = evt.OccurredAt, orderPayload(evt.Order), evt.ApprovedBy
	case domorder.OrderDeclinedEvent:
		env.OccurredAt, env.Order, env.ActorID = evt.OccurredAt, orderPayload(evt.Order), evt.DeclinedBy
	case domorder.OrderStatusChangedEvent:
		env.OccurredAt, env.Order, env.FromStatus = evt.OccurredAt, orderPayload(evt.Order), string(evt.From)
	case domcatalog.StockDepletedEvent:
		env.OccurredAt = evt.OccurredAt
		env.Product = &ProductPayload{ID: evt.ProductID, Name: evt.Name, OrderID: evt.OrderID}
	default:
		return Envelope{}, false
	}
	return env, true
}

func orderPayload(o domorder.Order) *OrderPayload {
	items := make([]LinePayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LinePayload{ProductID: it.ProductID, Name: it.Name, Price: it.Price})
	}
	return &OrderPayload{
		ID:            o.ID,
		UserID:        o.Customer.UserID,
		Username:      o.Customer.Username,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		Total:         o.Total,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
