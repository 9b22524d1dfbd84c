package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports backend liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the HTTP surface. Webhook and WebSocket handlers are
// optional; nil leaves the route unmounted.
type Options struct {
	Host        string
	Port        int
	BotName     string
	WebhookPath string
	Webhook     http.Handler
	WebSocket   http.Handler
	Store       Pinger
	Cache       Pinger
}

// Server exposes the webhook plus the operational endpoints.
type Server struct {
	opts       Options
	mux        *http.ServeMux
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// RootResponse is the landing payload served on GET /.
type RootResponse struct {
	OK      bool   `json:"ok"`
	Bot     string `json:"bot"`
	Webhook string `json:"webhook"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Services  map[string]ServiceHealth `json:"services"`
	Timestamp string                   `json:"timestamp"`
}

// ServiceHealth represents a service health status
type ServiceHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// New creates a new HTTP server
func New(opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WebhookPath == "" {
		opts.WebhookPath = "/webhook"
	}

	s := &Server{
		opts:      opts,
		logger:    logger,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	if opts.Webhook != nil {
		mux.Handle(opts.WebhookPath, opts.Webhook)
	}
	if opts.WebSocket != nil {
		mux.Handle("/ws", opts.WebSocket)
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/", s.rootHandler)
	s.mux = mux

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// rootHandler answers GET / with the landing payload uptime probes expect.
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := RootResponse{
		OK:      true,
		Bot:     s.opts.BotName,
		Webhook: s.opts.WebhookPath,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// healthHandler handles health check requests
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	services := map[string]ServiceHealth{
		"http": {Healthy: true, Message: "HTTP server running"},
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.Ping(ctx); err != nil {
			status = "degraded"
			services["store"] = ServiceHealth{Healthy: false, Message: err.Error()}
		} else {
			services["store"] = ServiceHealth{Healthy: true}
		}
	}
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Ping(ctx); err != nil {
			services["cache"] = ServiceHealth{Healthy: false, Message: err.Error()}
		} else {
			services["cache"] = ServiceHealth{Healthy: true}
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   "1.0.0",
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
