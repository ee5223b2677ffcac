// Package viewstate holds per-screen state: each controller owns an observable
// state value and handles the screen's intents.
package viewstate

import (
	"context"
	"sync"
)

// Holder is an observable value. Subscribers always converge on the latest
// value but may skip intermediate ones.
type Holder[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[chan T]struct{}
	closed bool
	done   chan struct{}
}

func NewHolder[T any](initial T) *Holder[T] {
	return &Holder[T]{value: initial, subs: make(map[chan T]struct{}), done: make(chan struct{})}
}

func (h *Holder[T]) Value() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

// Update applies fn to the current value and publishes the result.
// Updates after Close are discarded.
func (h *Holder[T]) Update(fn func(T) T) T {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return h.value
	}
	h.value = fn(h.value)
	for ch := range h.subs {
		offerLatest(ch, h.value)
	}
	return h.value
}

func (h *Holder[T]) Set(v T) {
	h.Update(func(T) T { return v })
}

// Subscribe streams the current value and every later one until ctx is done
// or the holder is closed.
func (h *Holder[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	h.mu.Lock()
	ch <- h.value
	if h.closed {
		close(ch)
		h.mu.Unlock()
		return ch
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Close ends all subscriptions and freezes the value
func (h *Holder[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// offerLatest replaces an unread value; callers hold the holder lock
func offerLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
