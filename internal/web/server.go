// Package web serves a read-only HTTP view of the bridge: attribute values,
// bring-up state, and a WebSocket feed of bridge events. The GATT surface
// stays the only control path.
package web

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"growbridge/internal/bridge"
)

// ServerOption configures the web server.
type ServerOption func(*Server)

// WithAPIKey enables API key authentication on /api/ routes.
func WithAPIKey(key string) ServerOption {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithAllowedOrigins sets allowed WebSocket origin patterns.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithVersion sets the version string reported by /api/version.
func WithVersion(v string) ServerOption {
	return func(s *Server) {
		s.version = v
	}
}

// WithStateFunc sets the source of the bring-up state for /api/status.
func WithStateFunc(fn func() string) ServerOption {
	return func(s *Server) {
		s.stateFn = fn
	}
}

// Server is the HTTP server for the observation API.
type Server struct {
	svc            *bridge.Service
	logger         *slog.Logger
	mux            *http.ServeMux
	hub            *eventHub
	apiKey         string
	allowedOrigins []string
	version        string
	stateFn        func() string
	wg             sync.WaitGroup
	unsubEvents    func()
}

// NewServer creates a web server over the given attribute tree, mirroring
// every bridge event to connected WebSocket clients.
func NewServer(svc *bridge.Service, events *bridge.EventBus, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = newEventHub(logger)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.run()
	}()

	s.unsubEvents = events.OnAll(func(event bridge.Event) {
		s.hub.broadcast(event)
	})

	s.routes()
	return s
}

// Stop unsubscribes from events and shuts down the WebSocket hub.
func (s *Server) Stop() {
	if s.unsubEvents != nil {
		s.unsubEvents()
	}
	s.hub.stop()
	s.wg.Wait()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/attributes", s.handleAPIListAttributes)
	s.mux.HandleFunc("GET /api/attributes/{name}", s.handleAPIGetAttribute)
	s.mux.HandleFunc("GET /api/status", s.handleAPIStatus)
	s.mux.HandleFunc("GET /api/version", s.handleAPIVersion)
	s.mux.HandleFunc("GET /ws", s.handleWS)
}

// ServeHTTP implements http.Handler, applying API key auth to /api/ routes.
// The WebSocket endpoint is not key-protected because browsers cannot send
// custom headers on the upgrade request; it is origin-checked instead.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.apiKey != "" && strings.HasPrefix(r.URL.Path, "/api/") {
		key := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}
	s.mux.ServeHTTP(w, r)
}
