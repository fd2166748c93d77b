package router

import (
	"sync"

	"github.com/novem-io/novem-webview/internal/viewstate"
)

// View identifies a sub-view.
type View string

const (
	ViewPlot    View = "plot"
	ViewMail    View = "mail"
	ViewProfile View = "profile"
	ViewHome    View = "home"
)

// Greeting is shown at the root route.
const Greeting = "Hello World from Novem Web View!"

var routes = map[string]View{
	"/":        ViewHome,
	"/plots":   ViewPlot,
	"/mails":   ViewMail,
	"/profile": ViewProfile,
}

// Selection is what the view layer renders for the current location.
type Selection struct {
	Route    string                 `json:"route"`
	View     View                   `json:"view,omitempty"`
	Greeting string                 `json:"greeting,omitempty"`
	Context  viewstate.ViewContext  `json:"context"`
	Data     *viewstate.FetchedData `json:"data,omitempty"`
}

// Select maps route to its view. Every view except the greeting receives
// data. ok is false for unknown routes.
func Select(route string, data *viewstate.FetchedData) (sel Selection, ok bool) {
	sel.Route = route
	v, ok := routes[route]
	if !ok {
		return sel, false
	}
	sel.View = v
	if v == ViewHome {
		sel.Greeting = Greeting
		return sel, true
	}
	sel.Data = data
	return sel, true
}

// Router holds the current location and reads the view state from the
// stores it is given.
type Router struct {
	contexts *viewstate.ContextStore
	data     *viewstate.DataStore

	mu       sync.RWMutex
	location string
	visits   int
}

// New creates a Router positioned at "/".
func New(contexts *viewstate.ContextStore, data *viewstate.DataStore) *Router {
	return &Router{contexts: contexts, data: data, location: "/"}
}

// Navigate moves to route. It is the navigation side effect of a host
// navigate message.
func (r *Router) Navigate(route string) {
	r.mu.Lock()
	r.location = route
	r.visits++
	r.mu.Unlock()
}

// Location returns the current route.
func (r *Router) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// Navigations returns how many times Navigate was called.
func (r *Router) Navigations() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visits
}

// Current returns the selection for the current location with the access
// token redacted.
func (r *Router) Current() Selection {
	sel, _ := Select(r.Location(), r.data.Get())
	sel.Context = r.contexts.Get().Redacted()
	return sel
}
