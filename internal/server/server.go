package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// allowedOrigins are the browser origins that may call the API or open the
// host websocket. Each pattern may hold one "*" wildcard.
var allowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*", "vscode-webview://*"}

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves the view API and the host websocket channel.
type Server struct {
	cfg    Config
	router chi.Router

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a new server.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware. The request timeout is applied per route group in API()
	// so long-lived websocket connections are not cut off.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return s.originAllowed(origin)
		},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

// Router returns the chi router for registering long-lived routes.
func (s *Server) Router() chi.Router { return s.router }

// API returns a router whose requests are bounded by a timeout.
func (s *Server) API() chi.Router {
	return s.router.With(middleware.Timeout(60 * time.Second))
}

// CheckOrigin reports whether a websocket upgrade may proceed. Requests
// without an Origin header come from non-browser clients and are accepted;
// browser origins follow the CORS policy.
func (s *Server) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.originAllowed(origin)
}

func (s *Server) originAllowed(origin string) bool {
	if s.cfg.AllowAll {
		return true
	}
	origin = strings.ToLower(origin)
	for _, pattern := range allowedOrigins {
		prefix, suffix, wild := strings.Cut(pattern, "*")
		if !wild {
			if origin == pattern {
				return true
			}
			continue
		}
		if len(origin) >= len(prefix)+len(suffix) && strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("novem-webview listening on %s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
