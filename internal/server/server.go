// Package server provides the HTTP API for the signal pipeline.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mkessler/leadpulse/internal/collect"
	"github.com/mkessler/leadpulse/internal/config"
	"github.com/mkessler/leadpulse/internal/db"
	"github.com/mkessler/leadpulse/internal/discovery"
	"github.com/mkessler/leadpulse/internal/engine"
)

// How long a backgrounded collection or discovery run may take.
const runTimeout = 5 * time.Minute

// Server is the HTTP API over the store, the collection engine and lead
// discovery.
type Server struct {
	httpServer *http.Server
	db         *db.DB
	runner     *engine.Runner
	discovery  *discovery.Service
	validate   *validator.Validate

	apiKey              string
	jwtSecret           string
	highIntentThreshold float64
	recentWindowDays    int
}

// New connects to the database and wires the collectors, engine and routes.
func New(cfg *config.Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Server{
		db:                  database,
		validate:            validator.New(),
		apiKey:              cfg.APIKey,
		jwtSecret:           cfg.JWTSecret,
		highIntentThreshold: cfg.HighIntentThreshold,
		recentWindowDays:    cfg.RecentWindowDays,
	}

	if s.apiKey == "" && s.jwtSecret == "" {
		log.Println("WARNING: no API_KEY or JWT_SECRET configured, API is unauthenticated")
	}

	s.runner = engine.New(database, Collectors(cfg), cfg.Weights, runTimeout)
	s.discovery = discovery.New(database, cfg.GitHubToken, cfg.NewsAPIKey, cfg.RequestTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/leads", s.handleCreateLead)
	mux.HandleFunc("GET /v1/leads", s.handleListLeads)
	mux.HandleFunc("GET /v1/leads/high-intent", s.handleHighIntentLeads)
	mux.HandleFunc("GET /v1/leads/{id}", s.handleGetLead)
	mux.HandleFunc("DELETE /v1/leads/{id}", s.handleDeleteLead)
	mux.HandleFunc("POST /v1/leads/{id}/collect", s.handleCollect)
	mux.HandleFunc("GET /v1/leads/{id}/signals", s.handleListSignals)
	mux.HandleFunc("POST /v1/discovery/run", s.handleDiscoveryRun)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withAuth(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Collectors builds the source collectors from configuration. Sources without
// credentials come back disabled but still registered, so every run logs what
// was skipped.
func Collectors(cfg *config.Config) []collect.Collector {
	return []collect.Collector{
		collect.NewGitHub(cfg.GitHubToken, cfg.RequestTimeout),
		collect.NewReddit(cfg.RedditUserAgent, cfg.RequestTimeout),
		collect.NewNews(cfg.NewsAPIKey, cfg.RequestTimeout),
		collect.NewIntel(cfg.LogoDevAPIKey, cfg.RequestTimeout),
		collect.NewTechStack(cfg.BuiltWithAPIKey, cfg.UseBrowser, cfg.RequestTimeout),
	}
}

// Start begins listening and blocks until an interrupt, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleHealth reports liveness, including database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
