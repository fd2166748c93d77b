package webview

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/novem-io/novem-webview/internal/fetcher"
	"github.com/novem-io/novem-webview/internal/hostmsg"
	"github.com/novem-io/novem-webview/internal/router"
	"github.com/novem-io/novem-webview/internal/theme"
	"github.com/novem-io/novem-webview/internal/viewstate"
)

// ErrClosed is returned when attaching to an App that has been closed.
var ErrClosed = errors.New("webview closed")

// Options configures an App.
type Options struct {
	Fetch fetcher.Options
	// Modes is read by the theme endpoint. Nil disables it.
	Modes router.ModeReader
	// CheckOrigin decides which browser origins may open the host
	// websocket. Nil accepts only same-host origins.
	CheckOrigin func(r *http.Request) bool
	Verbose     bool
}

// App is a mounted view. It owns the view context and fetched data stores
// and hands them to the router, the listener and the fetcher.
type App struct {
	contexts *viewstate.ContextStore
	data     *viewstate.DataStore
	router   *router.Router
	listener *hostmsg.Listener
	fetcher  *fetcher.Fetcher
	fetchSub *fetcher.Subscription
	modes    router.ModeReader
	origin   func(r *http.Request) bool
	verbose  bool

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	hostSubs  []*hostmsg.Subscription
	themeSubs []*theme.Subscription
}

// New mounts a view: empty stores, the router at "/" and the fetcher
// watching the context store.
func New(opts Options) *App {
	contexts := viewstate.NewContextStore()
	data := viewstate.NewDataStore()
	rt := router.New(contexts, data)

	l := hostmsg.NewListener(contexts, rt)
	l.SetVerbose(opts.Verbose)

	opts.Fetch.Verbose = opts.Fetch.Verbose || opts.Verbose
	f := fetcher.New(data, opts.Fetch)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		contexts: contexts,
		data:     data,
		router:   rt,
		listener: l,
		fetcher:  f,
		fetchSub: f.Attach(contexts),
		modes:    opts.Modes,
		origin:   opts.CheckOrigin,
		verbose:  opts.Verbose,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Contexts returns the view context store. Callers must not Set it; the
// listener is its only writer.
func (a *App) Contexts() *viewstate.ContextStore { return a.contexts }

// Data returns the fetched data store.
func (a *App) Data() *viewstate.DataStore { return a.data }

// Router returns the view router.
func (a *App) Router() *router.Router { return a.router }

// Listener returns the host message listener.
func (a *App) Listener() *hostmsg.Listener { return a.listener }

// AttachHost feeds msgs into the listener until the channel closes, ctx is
// done or the App is closed.
func (a *App) AttachHost(ctx context.Context, msgs <-chan hostmsg.Message) (*hostmsg.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	ctx, stop := mergeCancel(ctx, a.ctx)
	sub := a.listener.Attach(ctx, msgs)
	go func() {
		<-sub.Done()
		stop()
	}()
	a.hostSubs = append(a.hostSubs, sub)
	return sub, nil
}

// WatchTheme runs e on every class mutation from src until the App is
// closed.
func (a *App) WatchTheme(ctx context.Context, src theme.MutationSource, e *theme.Enforcer) (*theme.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	ctx, stop := mergeCancel(ctx, a.ctx)
	sub, err := theme.Observe(ctx, src, e)
	if err != nil {
		stop()
		return nil, err
	}
	go func() {
		<-sub.Done()
		stop()
	}()
	a.themeSubs = append(a.themeSubs, sub)
	return sub, nil
}

// RegisterRoutes mounts the host websocket on long and the view API on api.
// long must not impose a request timeout.
func (a *App) RegisterRoutes(long, api chi.Router) {
	long.Handle("/ws/host", a.hostHandler())
	router.RegisterRoutes(api, a.router, a.modes)
}

// hostHandler ends each websocket session when the App closes.
func (a *App) hostHandler() http.Handler {
	h := hostmsg.Handler(a.listener, a.origin)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, stop := mergeCancel(r.Context(), a.ctx)
		defer stop()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Close unmounts the view: every host channel and theme observer is torn
// down and in-flight fetches are cancelled and waited for.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	hostSubs, themeSubs := a.hostSubs, a.themeSubs
	a.hostSubs, a.themeSubs = nil, nil
	a.mu.Unlock()

	a.cancel()
	for _, s := range hostSubs {
		s.Close()
	}
	for _, s := range themeSubs {
		s.Close()
	}
	a.fetchSub.Close()
	a.fetcher.Close()
	if a.verbose {
		log.Printf("webview: unmounted")
	}
}

// mergeCancel returns a context cancelled when either parent or other is.
func mergeCancel(parent, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stopAfter := context.AfterFunc(other, cancel)
	return ctx, func() {
		stopAfter()
		cancel()
	}
}
