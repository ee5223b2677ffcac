package viewstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_SubscribeGetsCurrentAndLatest(t *testing.T) {
	h := NewHolder(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.Subscribe(ctx)
	assert.Equal(t, 1, <-ch)

	h.Set(2)
	h.Set(3)
	assert.Equal(t, 3, <-ch, "unread values are replaced by the latest")
	assert.Equal(t, 3, h.Value())

	assert.Equal(t, 4, h.Update(func(v int) int { return v + 1 }))
	assert.Equal(t, 4, <-ch)
}

func TestHolder_SubscriptionEndsWithContext(t *testing.T) {
	h := NewHolder("a")
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx)
	<-ch

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestHolder_CloseFreezesValue(t *testing.T) {
	h := NewHolder(1)
	ch := h.Subscribe(context.Background())
	<-ch

	h.Close()
	_, ok := <-ch
	assert.False(t, ok)

	h.Set(2)
	assert.Equal(t, 1, h.Value())

	late := h.Subscribe(context.Background())
	require.Equal(t, 1, <-late)
	_, ok = <-late
	assert.False(t, ok)
}
