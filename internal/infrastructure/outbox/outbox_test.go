package outbox

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Zhima-Mochi/minishop-storebot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(observability.NopLogger())
	var wg sync.WaitGroup
	var calls atomic.Int32
	wg.Add(2)
	for range 2 {
		bus.Subscribe("order.approved", func(context.Context, domoutbox.Event) error {
			calls.Add(1)
			wg.Done()
			return nil
		})
	}
	bus.Subscribe("order.declined", func(context.Context, domoutbox.Event) error {
		t.Error("unexpected handler")
		return nil
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{"order.approved"}))
	wg.Wait()
	bus.Stop(context.Background())

	assert.Equal(t, int32(2), calls.Load())
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus(observability.NopLogger())
	got := make(chan struct{}, 2)
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		panic("boom")
	})
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		got <- struct{}{}
		return nil
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{"x"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{"x"}))

	for range 2 {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("handler not invoked")
		}
	}
	bus.Stop(context.Background())
}

func TestBusStopDrainsAndRejects(t *testing.T) {
	bus := NewBus(observability.NopLogger(), WithQueueSize(16))
	var calls atomic.Int32
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		return nil
	})

	for range 5 {
		require.NoError(t, bus.Publish(context.Background(), testEvent{"x"}))
	}
	bus.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(ctx)

	assert.Equal(t, int32(5), calls.Load())
	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{"x"}), ErrClosed)
}

func TestPublishHonorsContextWhenQueueFull(t *testing.T) {
	bus := NewBus(observability.NopLogger(), WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), testEvent{"x"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, testEvent{"x"}), context.Canceled)
}
