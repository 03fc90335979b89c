package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/factlens/factlens/internal/auth"
	"github.com/factlens/factlens/internal/quota"
	"github.com/factlens/factlens/pkg/models"
)

// Analyzer runs a full credibility assessment for one post.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (*models.CredibilityReport, error)
}

// QuotaStore meters fact-check usage per user.
type QuotaStore interface {
	Consume(ctx context.Context, userID string) (quota.Decision, error)
	Usage(ctx context.Context, userID string) (quota.Decision, error)
}

// Config holds server configuration
type Config struct {
	// AnalyzeTimeout bounds a single fact-check end to end, including all
	// upstream retries.
	AnalyzeTimeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		AnalyzeTimeout: 2 * time.Minute,
	}
}

type Server struct {
	router      *chi.Mux
	authService auth.Service
	analyzer    Analyzer
	quota       QuotaStore
	config      Config
}

func NewServer(authService auth.Service, analyzer Analyzer, quotaStore QuotaStore, config Config) *Server {
	if config.AnalyzeTimeout <= 0 {
		config.AnalyzeTimeout = DefaultConfig().AnalyzeTimeout
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:      r,
		authService: authService,
		analyzer:    analyzer,
		quota:       quotaStore,
		config:      config,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.authService))

			r.Post("/fact-check", s.handleFactCheck)
			r.Get("/me/limits", s.handleLimits)
		})
	})
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Helper to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
