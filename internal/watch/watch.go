// Package watch provides an observable value for state that several
// controllers follow, such as the signed-in user.
package watch

import "sync"

// Value holds a T and notifies subscribers whenever it is set.
//
// Deliveries are serialized: every subscriber sees values in the order the
// Sets took effect, and the last value it receives is the current one.
// A handler must not Set or Subscribe to the Value it is called from.
type Value[T any] struct {
	deliver sync.Mutex

	mu       sync.Mutex
	current  T
	nextID   int
	handlers map[int]func(T)
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial, handlers: make(map[int]func(T))}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores next and calls every subscriber with it, on the caller's
// goroutine, in subscription order.
func (v *Value[T]) Set(next T) {
	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	v.current = next
	handlers := make([]func(T), 0, len(v.handlers))
	for id := 0; id < v.nextID; id++ {
		if h, ok := v.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	v.mu.Unlock()

	for _, h := range handlers {
		h(next)
	}
}

// Subscribe calls handler with the current value and on every Set until the
// returned function is called.
func (v *Value[T]) Subscribe(handler func(T)) (unsubscribe func()) {
	v.deliver.Lock()
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.handlers[id] = handler
	current := v.current
	v.mu.Unlock()

	handler(current)
	v.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.handlers, id)
			v.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.handlers)
}
