package viewstate

import "sync"

// Store holds a single value that is only ever replaced wholesale.
// Subscribers are called synchronously from Set, in Set order, after the
// new value is visible to Get. A subscriber must not call Set on the same
// store.
type Store[T any] struct {
	mu     sync.RWMutex
	value  T
	notify sync.Mutex

	subMu  sync.Mutex
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// NewStore returns a store holding initial.
func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the current value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	s.value = v
	s.mu.Unlock()

	for _, fn := range s.snapshot() {
		fn(v)
	}
}

// Subscribe registers fn for future values and returns a function that
// removes it. Calling the returned function more than once is harmless.
func (s *Store[T]) Subscribe(fn func(T)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// snapshot returns subscribers in registration order.
func (s *Store[T]) snapshot() []func(T) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	out := make([]func(T), len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}

// ContextStore is the View Context Store.
type ContextStore = Store[ViewContext]

// DataStore is the Fetched Data Store. A nil value means nothing has been
// fetched yet.
type DataStore = Store[*FetchedData]

// NewContextStore returns a context store in its mount state.
func NewContextStore() *ContextStore { return NewStore(ViewContext{}) }

// NewDataStore returns an empty data store.
func NewDataStore() *DataStore { return NewStore[*FetchedData](nil) }
