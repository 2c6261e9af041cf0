// Package debug serves the optional local introspection endpoint:
// Prometheus metrics, a health probe and a dump of the query cache.
package debug

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/mmcdole/moviesearch/internal/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BreakerReporter exposes the API circuit state
type BreakerReporter interface {
	BreakerState() string
}

// Server wires the debug routes
type Server struct {
	addr     string
	queries  *query.Client
	breaker  BreakerReporter
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router
	httpSrv  *http.Server
	started  time.Time
}

// New constructs the debug server. Nothing listens until Start.
func New(addr string, queries *query.Client, breaker BreakerReporter, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		queries:  queries,
		breaker:  breaker,
		gatherer: gatherer,
		logger:   logger.With("component", "debug"),
		router:   r,
		started:  time.Now(),
	}
	r.Use(s.logRequests)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.router.Route("/debug", func(r chi.Router) {
		r.Get("/queries", s.handleQueries)
	})
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background. The returned address is the one
// actually bound, which differs from the configured one for port 0.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", err
	}
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("debug server stopped", "error", err)
		}
	}()
	s.logger.Info("debug server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status  string `json:"status"`
	Breaker string `json:"breaker"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Breaker: "disabled",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	status := http.StatusOK
	if s.breaker != nil {
		resp.Breaker = s.breaker.BreakerState()
		if resp.Breaker == "open" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, status, resp)
}

type queriesResponse struct {
	Count   int               `json:"count"`
	Entries []query.EntryInfo `json:"entries"`
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	entries := s.queries.Entries()
	if entries == nil {
		entries = []query.EntryInfo{}
	}
	s.writeJSON(w, http.StatusOK, queriesResponse{Count: len(entries), Entries: entries})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

// logRequests logs through slog; chi's stdout logger would tear the TUI
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
