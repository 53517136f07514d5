// Package httpapi is the inbound HTTP surface: POST /query,
// POST /query/stream (SSE), GET /cache/stats, POST /cache/clear, GET
// /health. Routing, middleware chain, and request-id/logging use
// gorilla/mux and zerolog structured logging.
package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hanlulong/openecon-data-sub002/internal/metrics"
	"github.com/hanlulong/openecon-data-sub002/internal/orchestrator"
)

type requestIDKey struct{}

// Config is the HTTP server's listen address and timeout settings.
type Config struct {
	Host string
	Port int
	ReadTimeout time.Duration
	WriteTimeout time.Duration
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
 Host: "0.0.0.0",
 Port: 8080,
 ReadTimeout: 10 * time.Second,
 WriteTimeout: 0, // SSE streams must not be write-deadlined
 IdleTimeout: 60 * time.Second,
	}
}

// Server is the query pipeline's HTTP front door.
type Server struct {
	router *mux.Router
	server *http.Server
	cfg Config
	deps Deps
}

// Deps bundles everything the handlers need.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	ProvidersConfigured []string
}

func NewServer(cfg Config, deps Deps) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
 return nil, fmt.Errorf("port %d is busy or unavailable: %w", cfg.Port, err)
	}
	listener.Close()

	router := mux.NewRouter()
	s := &Server{router: router, cfg: cfg, deps: deps}
	s.setupRoutes()

	s.server = &http.Server{
 Addr: addr,
 Handler: router,
 ReadTimeout: cfg.ReadTimeout,
 WriteTimeout: cfg.WriteTimeout,
 IdleTimeout: cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/query/stream", s.handleQueryStream).Methods(http.MethodPost)
	api.HandleFunc("/cache/stats", s.handleCacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache/clear", s.handleCacheClear).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
 id := uuid.New().String()[:8]
 w.Header().Set("X-Request-ID", id)
 next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
 start := time.Now()
 wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
 next.ServeHTTP(wrapper, r)
 elapsed := time.Since(start)

 outcome := "ok"
 if wrapper.statusCode >= 400 {
 outcome = "error"
 }
 metrics.RequestsTotal.WithLabelValues(r.URL.Path, outcome).Inc()
 metrics.RequestDuration.WithLabelValues(r.URL.Path).Observe(elapsed.Seconds())

 log.Info().
 Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey{}))).
 Str("method", r.Method).
 Str("path", r.URL.Path).
 Int("status", wrapper.statusCode).
 Dur("duration", elapsed).
 Msg("http request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
 origin := r.Header.Get("Origin")
 if origin != "" {
 w.Header().Set("Access-Control-Allow-Origin", origin)
 }
 w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
 w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
 if r.Method == http.MethodOptions {
 w.WriteHeader(http.StatusOK)
 return
 }
 next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
 if !strings.HasSuffix(r.URL.Path, "/stream") {
 w.Header().Set("Content-Type", "application/json")
 }
 next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting query API server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down query API server")
	return s.server.Shutdown(ctx)
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
