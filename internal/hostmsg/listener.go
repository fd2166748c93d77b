package hostmsg

import (
	"context"
	"log"
	"sync"

	"github.com/novem-io/novem-webview/internal/viewstate"
)

// Command names understood by the listener.
const (
	CommandNavigate = "navigate"
)

// Message is a command sent by the host process.
type Message struct {
	Command       string `json:"command"`
	Route         string `json:"route,omitempty"`
	VisID         string `json:"visId,omitempty"`
	URI           string `json:"uri,omitempty"`
	ShortName     string `json:"shortName,omitempty"`
	Token         string `json:"token,omitempty"`
	APIRoot       string `json:"apiRoot,omitempty"`
	IgnoreSSLWarn bool   `json:"ignoreSslWarn,omitempty"`
}

// ViewContext extracts the navigation context carried by a navigate message.
func (m Message) ViewContext() viewstate.ViewContext {
	return viewstate.ViewContext{
		Route:         m.Route,
		VisID:         m.VisID,
		URI:           m.URI,
		Shortname:     m.ShortName,
		Token:         m.Token,
		APIRoot:       m.APIRoot,
		IgnoreSSLWarn: m.IgnoreSSLWarn,
	}
}

// Navigator performs the route change that follows a context update.
type Navigator interface {
	Navigate(route string)
}

// Listener applies host messages to the view context store.
type Listener struct {
	store     *viewstate.ContextStore
	navigator Navigator
	verbose   bool

	// mu serializes Handle across all attached channels, so a context
	// replacement and its route change are never interleaved with another.
	mu sync.Mutex
}

// NewListener creates a Listener writing to store and navigating with nav.
func NewListener(store *viewstate.ContextStore, nav Navigator) *Listener {
	return &Listener{store: store, navigator: nav}
}

// SetVerbose enables logging of ignored commands.
func (l *Listener) SetVerbose(v bool) { l.verbose = v }

// Handle applies a single host message. Unknown commands are ignored.
func (l *Listener) Handle(msg Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch msg.Command {
	case CommandNavigate:
		l.store.Set(msg.ViewContext())
		if l.navigator != nil {
			l.navigator.Navigate(msg.Route)
		}
	default:
		if l.verbose {
			log.Printf("hostmsg: ignoring command %q", msg.Command)
		}
	}
}

// Attach consumes msgs until the channel is closed, ctx is done or the
// returned subscription is closed.
func (l *Listener) Attach(ctx context.Context, msgs <-chan Message) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				l.Handle(msg)
			}
		}
	}()

	return sub
}

// Subscription is the teardown handle of an attached host channel.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops consuming messages and waits for the consumer to exit.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has stopped consuming.
func (s *Subscription) Done() <-chan struct{} { return s.done }
