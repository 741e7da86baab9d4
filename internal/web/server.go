// Package web serves the deploy console: a JSON API over the catalog,
// the deploy sequences and the local history, plus a websocket stream of
// deploy events.
package web

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"mashupctl/internal/catalog"
	"mashupctl/internal/deploy"
	"mashupctl/internal/events"
	"mashupctl/internal/store"
)

// ServerOption configures the web server.
type ServerOption func(*Server)

// WithAPIKey enables API key authentication.
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

// WithHistory serves deployment history from st and replays it to new
// websocket clients.
func WithHistory(st store.Store) ServerOption {
	return func(s *Server) {
		s.history = st
	}
}

// WithVersion sets the application version string.
func WithVersion(v string) ServerOption {
	return func(s *Server) {
		s.version = v
	}
}

// Server is the HTTP server for the deploy console.
type Server struct {
	registry       *catalog.Registry
	deployer       *deploy.Deployer
	bus            *events.Bus
	history        store.Store
	hub            *stepHub
	logger         *slog.Logger
	mux            *http.ServeMux
	apiKey         string
	allowedOrigins []string
	version        string
	unsubEvents    func()

	// deployMu serializes mutating calls against the platform.
	deployMu sync.Mutex
}

// NewServer creates a new web server. bus may be nil, in which case the
// websocket stream stays silent.
func NewServer(reg *catalog.Registry, dep *deploy.Deployer, bus *events.Bus, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		registry: reg,
		deployer: dep,
		bus:      bus,
		logger:   logger.With("component", "web"),
		mux:      http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.hub = newStepHub(s.logger)

	// Every deploy step goes out to console clients
	if bus != nil {
		s.unsubEvents = bus.Subscribe(s.hub.Publish)
	}

	s.routes()
	return s
}

// Stop detaches from the bus and disconnects console clients.
func (s *Server) Stop() {
	if s.unsubEvents != nil {
		s.unsubEvents()
	}
	s.hub.Close()
}

func (s *Server) routes() {
	// Catalog
	s.mux.HandleFunc("GET /api/catalog", s.handleAPIListCatalog)
	s.mux.HandleFunc("GET /api/catalog/{name}", s.handleAPIGetDefinition)

	// Platform
	s.mux.HandleFunc("POST /api/mashups/{name}/push", s.handleAPIPushMashup)
	s.mux.HandleFunc("GET /api/mashups/{name}", s.handleAPIInspectMashup)
	s.mux.HandleFunc("POST /api/things/{name}/create", s.handleAPICreateThing)
	s.mux.HandleFunc("GET /api/templates", s.handleAPIListTemplates)

	// Local state
	s.mux.HandleFunc("GET /api/history", s.handleAPIHistory)
	s.mux.HandleFunc("DELETE /api/history/{name}", s.handleAPIClearHistory)
	s.mux.HandleFunc("GET /api/snapshots", s.handleAPIListSnapshots)
	s.mux.HandleFunc("GET /api/snapshots/{name}", s.handleAPIGetSnapshot)
	s.mux.HandleFunc("GET /api/version", s.handleAPIVersion)

	// WebSocket
	s.mux.HandleFunc("GET /ws", s.handleWS)
}

// ServeHTTP implements http.Handler, applying auth and CORS middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// CORS: check Origin on mutating requests to prevent CSRF.
	if len(s.allowedOrigins) > 0 {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if r.Method == http.MethodOptions {
				if s.isOriginAllowed(origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", "3600")
					w.WriteHeader(http.StatusNoContent)
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if r.Method != http.MethodGet {
				if !s.isOriginAllowed(origin) {
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
	}

	if s.apiKey != "" {
		// The websocket is not key-protected: browsers cannot set custom
		// headers on the upgrade request.
		if strings.HasPrefix(r.URL.Path, "/api/") {
			key := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
				s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
		}
	}
	s.mux.ServeHTTP(w, r)
}

// isOriginAllowed checks if the origin matches any allowed origin pattern.
func (s *Server) isOriginAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) handleAPIVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}
