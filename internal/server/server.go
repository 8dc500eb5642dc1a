// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and
// routes. It decides which URL patterns map to which handlers, what
// middleware runs where, and how the server starts and stops gracefully.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go: config + logger → Server
//	Server.New(): sqlite.DB → TokenService/PasswordService → AuthService → AuthHandler
//
// This is the "composition root" pattern — all dependencies are wired in one
// place rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/sakif/secure-login/internal/auth"
	"github.com/sakif/secure-login/internal/config"
	"github.com/sakif/secure-login/internal/handler"
	"github.com/sakif/secure-login/internal/middleware"
	sqliteRepo "github.com/sakif/secure-login/internal/repository/sqlite"
	"github.com/sakif/secure-login/internal/service"
)

// Rate limits (OWASP A07 — brute-force protection).
//
// The register/login limit is an order of magnitude stricter than the global
// one: ten credential attempts per IP per window is plenty for a human who
// mistyped a password and nothing for a password sprayer. Both limits key on
// the client IP (after RealIP resolves proxy headers).
const (
	rateLimitWindow = 15 * time.Minute
	globalRateLimit = 100
	authRateLimit   = 10
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection; graceful shutdown closes it after
// in-flight requests drain, flushing the WAL and releasing the file lock.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// The entire dependency chain is assembled here:
//  1. Database connection (sqlite.New, runs migrations)
//  2. Token + password services
//  3. AuthService with the repository interface (not the concrete DB)
//  4. AuthHandler with the service
//  5. Routes
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /health          → liveness probe
//	POST /users/register  → create account           (strict rate limit)
//	POST /users/login     → establish session        (strict rate limit)
//	GET  /users/profile   → own profile              (auth required)
//	POST /users/logout    → clear session cookie     (idempotent, no auth)
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
//  1. RequestID — unique ID per request, for tracing
//  2. RealIP — real client IP from proxy headers (rate limits key on this,
//     so it must run before the limiter)
//  3. Recoverer — panics become 500s instead of a dead process
//  4. Logger, SecurityHeaders, CORS
//  5. Global rate limit
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.SecurityHeaders)

	// CORS: the browser frontend runs on a different origin and sends the
	// session cookie, so AllowCredentials must be true — which in turn
	// forbids a wildcard origin. Only the configured origins are accepted.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global abuse guard: 100 requests per IP per 15 minutes.
	s.router.Use(httprate.LimitByIP(globalRateLimit, rateLimitWindow))

	// Fail closed at startup: an empty or weak secret never reaches here —
	// config.Load rejected it — but the constructor checks again so the
	// invariant doesn't depend on the caller.
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.config.Production(), s.logger)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/users", func(r chi.Router) {
		// Credential endpoints get the stricter per-IP limit on top of the
		// global one.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(authRateLimit, rateLimitWindow))
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.With(auth.RequireAuth(tokens)).Get("/profile", authHandler.HandleProfile)

		// Logout is NOT behind RequireAuth: clearing a cookie that doesn't
		// exist is a harmless no-op, and demanding a valid token to log out
		// would strand users holding an expired one.
		r.Post("/logout", authHandler.HandleLogout)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Router exposes the configured router for handler-level tests.
func (s *Server) Router() http.Handler {
	return s.router
}
