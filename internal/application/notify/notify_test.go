package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storebot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []Message
	failures int
	// failPhotos rejects every message carrying a photo
	failPhotos bool
}

func (s *fakeSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPhotos && msg.Photo != "" {
		return errors.New("bad photo")
	}
	if s.failures > 0 {
		s.failures--
		return errors.New("telegram unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func TestDeliverRetriesUntilSuccess(t *testing.T) {
	sender := &fakeSender{failures: 2}
	uc := NewDeliverUseCase(sender, 3, time.Millisecond, observability.Nop())

	res, err := uc.Execute(context.Background(), Message{ChatID: 1, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, sender.messages(), 1)
}

func TestDeliverGivesUp(t *testing.T) {
	sender := &fakeSender{failures: 10}
	uc := NewDeliverUseCase(sender, 2, 0, observability.Nop())

	res, err := uc.Execute(context.Background(), Message{ChatID: 1, Text: "hi"})
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Equal(t, 2, res.Attempts)
	assert.Empty(t, sender.messages())
}

func TestDeliverFallsBackToText(t *testing.T) {
	sender := &fakeSender{failPhotos: true}
	uc := NewDeliverUseCase(sender, 1, 0, observability.Nop())

	res, err := uc.Execute(context.Background(), Message{ChatID: 1, Text: "caption", Photo: "https://img.example/broken.jpg"})
	require.NoError(t, err)
	assert.True(t, res.Fallback)

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].Photo)
	assert.Equal(t, "caption", sent[0].Text)
}

func TestDeliverStopsOnCanceledContext(t *testing.T) {
	sender := &fakeSender{failures: 10}
	uc := NewDeliverUseCase(sender, 5, time.Hour, observability.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := uc.Execute(ctx, Message{ChatID: 1, Text: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type captureSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (c *captureSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if c.handlers == nil {
		c.handlers = make(map[string]domoutbox.Handler)
	}
	c.handlers[name] = h
}

func (c *captureSubscriber) fire(t *testing.T, e domoutbox.Event) error {
	t.Helper()
	h, ok := c.handlers[e.EventName()]
	require.True(t, ok, "no handler for %s", e.EventName())
	return h(context.Background(), e)
}

type staticAdmins []int64

func (a staticAdmins) Admins() []int64 { return a }

type stubComposer struct{}

func (stubComposer) ProofSubmitted(o domorder.Order, adminID int64) []Message {
	return []Message{
		{ChatID: adminID, Text: "review " + o.ID},
		{ChatID: adminID, Photo: o.ProofRef, Text: "proof " + o.ID},
	}
}

func (stubComposer) OrderApproved(o domorder.Order) Message {
	return Message{ChatID: o.Customer.UserID, Text: "approved " + o.ID}
}

func (stubComposer) OrderDeclined(o domorder.Order) Message {
	return Message{ChatID: o.Customer.UserID, Text: "declined " + o.ID}
}

func (stubComposer) StatusChanged(o domorder.Order, _ domorder.Status) Message {
	return Message{ChatID: o.Customer.UserID, Text: string(o.Status)}
}

func (stubComposer) StockDepleted(e domcatalog.StockDepletedEvent, adminID int64) Message {
	return Message{ChatID: adminID, Text: "out " + e.Name}
}

func newOrder(t *testing.T) *domorder.Order {
	t.Helper()
	o, err := domorder.New("ORD1000", domorder.Customer{UserID: 7}, []domorder.LineItem{{ProductID: 1, Name: "A", Price: 10}}, payment.MethodCBE)
	require.NoError(t, err)
	require.NoError(t, o.AttachProof("file-1"))
	return o
}

func TestWorkerNotifiesEveryAdmin(t *testing.T) {
	sender := &fakeSender{}
	sub := &captureSubscriber{}
	w := NewWorker(sub, NewDeliverUseCase(sender, 1, 0, observability.Nop()), stubComposer{}, staticAdmins{100, 200}, observability.Nop())
	w.Start()

	require.NoError(t, sub.fire(t, domorder.NewOrderProofAttachedEvent(newOrder(t))))

	sent := sender.messages()
	require.Len(t, sent, 4)
	assert.Equal(t, int64(100), sent[0].ChatID)
	assert.Equal(t, "file-1", sent[1].Photo)
	assert.Equal(t, int64(200), sent[2].ChatID)
}

func TestWorkerNotifiesCustomer(t *testing.T) {
	sender := &fakeSender{}
	sub := &captureSubscriber{}
	w := NewWorker(sub, NewDeliverUseCase(sender, 1, 0, observability.Nop()), stubComposer{}, staticAdmins{100}, observability.Nop())
	w.Start()

	o := newOrder(t)
	require.NoError(t, o.Approve())
	require.NoError(t, sub.fire(t, domorder.NewOrderApprovedEvent(o, 100)))
	require.NoError(t, o.Advance(domorder.StatusPreparing))
	require.NoError(t, sub.fire(t, domorder.NewOrderStatusChangedEvent(o, domorder.StatusApproved)))

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "approved ORD1000", sent[0].Text)
	assert.Equal(t, "preparing", sent[1].Text)
	for _, m := range sent {
		assert.Equal(t, int64(7), m.ChatID)
	}
}

func TestWorkerReportsUndeliveredMessages(t *testing.T) {
	sender := &fakeSender{failures: 100}
	sub := &captureSubscriber{}
	w := NewWorker(sub, NewDeliverUseCase(sender, 1, 0, observability.Nop()), stubComposer{}, staticAdmins{100}, observability.Nop())
	w.Start()

	o := newOrder(t)
	require.NoError(t, o.Decline())
	err := sub.fire(t, domorder.NewOrderDeclinedEvent(o, 100))
	assert.Error(t, err)
}
