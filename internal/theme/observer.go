package theme

import (
	"context"
	"fmt"
	"log"
)

// Mutation is a single DOM mutation record.
type Mutation struct {
	Type          string `json:"type"`
	AttributeName string `json:"attributeName"`
}

// triggers reports whether m is a class attribute change.
func (m Mutation) triggers() bool {
	return m.Type == "attributes" && m.AttributeName == "class"
}

// MutationSource delivers attribute mutations of the document body. The
// channel is closed when the source stops.
type MutationSource interface {
	Mutations(ctx context.Context) (<-chan []Mutation, error)
}

// Subscription is the teardown handle of an active observer.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close disconnects the observer and waits for it to stop.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the observer has stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Observe runs e.Enforce for every class mutation delivered by src until the
// returned subscription is closed, ctx is done or src stops.
func Observe(ctx context.Context, src MutationSource, e *Enforcer) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	batches, err := src.Mutations(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("observing mutations: %w", err)
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			select {
			case <-ctx.Done():
				return
			case batch, ok := <-batches:
				if !ok {
					return
				}
				for _, m := range batch {
					if !m.triggers() {
						continue
					}
					if _, err := e.Enforce(ctx); err != nil && ctx.Err() == nil {
						log.Printf("theme: %v", err)
					}
				}
			}
		}
	}()

	return sub, nil
}
