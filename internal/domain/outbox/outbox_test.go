package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

type impostor struct{}

func (impostor) EventName() string { return "test.pinged" }

type mapSubscriber map[string]Handler

func (m mapSubscriber) Subscribe(name string, h Handler) { m[name] = h }

func TestSubscribeIsTyped(t *testing.T) {
	sub := mapSubscriber{}
	var got []int
	Subscribe(sub, func(_ context.Context, e pinged) error {
		got = append(got, e.n)
		return nil
	})

	h, ok := sub["test.pinged"]
	require.True(t, ok)
	require.NoError(t, h(context.Background(), pinged{n: 3}))
	require.NoError(t, h(context.Background(), impostor{}))

	assert.Equal(t, []int{3}, got)
}
