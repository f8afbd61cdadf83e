// Package notify is a small typed publish/subscribe hub used by the stateful
// stores so that renderers can observe changes without the stores knowing
// anything about them.
package notify

import "sync"

// Hub delivers events of type T to subscribers in subscription order.
// Delivery is synchronous on the publishing goroutine.
type Hub[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(T)
	order  []int
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(T))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.order = append(h.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			for i, v := range h.order {
				if v == id {
					h.order = append(h.order[:i], h.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish sends ev to every current subscriber.
func (h *Hub[T]) Publish(ev T) {
	h.mu.RLock()
	fns := make([]func(T), 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.subs[id])
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}

// Chan subscribes a buffered channel. Events are dropped when the buffer is
// full rather than blocking the publisher.
func (h *Hub[T]) Chan(buffer int) (<-chan T, func()) {
	ch := make(chan T, buffer)
	unsub := h.Subscribe(func(ev T) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch, unsub
}
