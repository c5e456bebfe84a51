// Package watch provides a minimal live-value primitive: an observable
// container that pushes updates to current subscribers and delivers the
// latest value to new subscribers immediately.
package watch

import "sync"

// Value holds a current value of type T and a set of subscribers.
//
// Delivery semantics:
//   - Subscribe hands back a channel that already carries the current value.
//   - Set replaces the current value and notifies every subscriber registered
//     at that moment. Subscriber channels are conflating: a slow consumer
//     sees the latest value, not every intermediate one.
//   - Cancel funcs are idempotent and safe to call while a Set is in flight;
//     a subscriber removing itself never corrupts delivery to others.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

// NewValue returns a Value initialized to initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[int]chan T)}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current value and notifies all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = val
	for _, ch := range v.subs {
		deliver(ch, val)
	}
}

// Subscribe registers a new subscriber and returns its channel together with
// a cancel func. The channel is buffered and carries the current value at the
// time of subscription. Cancel closes the channel and may be called more
// than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++
	ch := make(chan T, 1)
	ch <- v.cur
	v.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// deliver pushes val into ch keeping only the newest value in the buffer.
// All sends happen under the Value mutex, so draining a stale value cannot
// race another sender; a concurrent receive by the consumer only frees the
// slot early.
func deliver[T any](ch chan T, val T) {
	select {
	case ch <- val:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- val:
	default:
	}
}
