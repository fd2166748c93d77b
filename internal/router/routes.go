package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novem-io/novem-webview/internal/theme"
	"github.com/novem-io/novem-webview/internal/viewstate"
)

// ModeReader reads the persisted theme.
type ModeReader interface {
	Mode(ctx context.Context) (theme.Mode, error)
}

// RegisterRoutes mounts the view endpoints under /api/view on the given
// router. modes may be nil when no theme is persisted.
func RegisterRoutes(r chi.Router, rt *Router, modes ModeReader) {
	r.Route("/api/view", func(r chi.Router) {
		r.Get("/", handleCurrent(rt))
		r.Get("/context", handleContext(rt))
		r.Get("/data", handleData(rt))
		r.Get("/theme", handleTheme(modes))
	})
}

func handleCurrent(rt *Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel := rt.Current()
		if sel.View == "" {
			writeJSON(w, http.StatusNotFound, sel)
			return
		}
		writeJSON(w, http.StatusOK, sel)
	}
}

func handleContext(rt *Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rt.contexts.Get().Redacted())
	}
}

// handleData returns the fetched data, or the part selected by a JMESPath
// ?query= expression.
func handleData(rt *Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expr := r.URL.Query().Get("query")
		if expr == "" {
			writeJSON(w, http.StatusOK, rt.data.Get())
			return
		}
		out, err := viewstate.Query(rt.data.Get(), expr)
		if errors.Is(err, viewstate.ErrInvalidQuery) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleTheme(modes ModeReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if modes == nil {
			http.Error(w, "theme not persisted", http.StatusNotFound)
			return
		}
		mode, err := modes.Mode(r.Context())
		if errors.Is(err, theme.ErrNotSet) {
			http.Error(w, "theme not set", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"theme": string(mode)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
