// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer. It decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	Server.New() creates: sqlite.DB → services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
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

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/handler"
	"github.com/sakif/conduit/internal/middleware"
	sqliteRepo "github.com/sakif/conduit/internal/repository/sqlite"
	"github.com/sakif/conduit/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	TokenTTL           time.Duration
	BcryptCost         int
	CORSAllowedOrigins []string
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. Start closes it after the HTTP
// server has drained, so in-flight requests never see a closed DB.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires every layer.
//
// We import repository/sqlite as `sqliteRepo` to keep it apart from the
// modernc sqlite driver package.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// DB exposes the database so tests and tools can seed it.
func (s *Server) DB() *sqliteRepo.DB { return s.db }

// Close releases the database. Start calls it on shutdown; tests that never
// Start call it directly.
func (s *Server) Close() error { return s.db.Close() }

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE ("A" = token required, "opt" = token optional):
//
//	GET    /healthz                              liveness
//	POST   /api/users                            register
//	POST   /api/users/login                      login
//	GET    /api/user                          A  current user
//	PUT    /api/user                          A  update user
//	GET    /api/profiles/{username}         opt  profile
//	POST   /api/profiles/{username}/follow    A  follow
//	DELETE /api/profiles/{username}/follow    A  unfollow
//	GET    /api/articles                    opt  list
//	GET    /api/articles/feed                 A  feed
//	POST   /api/articles                      A  create
//	GET    /api/articles/{slug}             opt  get
//	PUT    /api/articles/{slug}               A  update
//	DELETE /api/articles/{slug}               A  delete
//	POST   /api/articles/{slug}/favorite      A  favorite
//	DELETE /api/articles/{slug}/favorite      A  unfavorite
//	GET    /api/articles/{slug}/comments    opt  list comments
//	POST   /api/articles/{slug}/comments      A  comment
//	DELETE /api/articles/{slug}/comments/{id} A  delete comment
//	GET    /api/tags                             tags
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request ID
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflight requests from browser front-ends
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// === Services ===
	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	userService := service.NewUserService(s.db.Users(), authService, s.logger)
	profileService := service.NewProfileService(s.db.Users(), s.db.Follows(), s.logger)
	articleService := service.NewArticleService(s.db.Articles(), s.db.Users(), s.db.Favorites(), s.db.Follows(), s.logger)
	favoriteService := service.NewFavoriteService(s.db.Favorites(), articleService, s.logger)
	commentService := service.NewCommentService(s.db.Comments(), s.db.Articles(), s.db.Users(), s.db.Follows(), s.logger)

	// === Handlers ===
	users := handler.NewUserHandler(userService, s.logger)
	profiles := handler.NewProfileHandler(profileService, s.logger)
	articles := handler.NewArticleHandler(articleService, favoriteService, s.logger)
	comments := handler.NewCommentHandler(commentService, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Get("/healthz", health.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/users", users.HandleRegister)
		r.Post("/users/login", users.HandleLogin)
		r.Get("/tags", articles.HandleTags)

		// Identity optional: anonymous callers get following/favorited = false
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/profiles/{username}", profiles.HandleGet)
			r.Get("/articles", articles.HandleList)
			r.Get("/articles/{slug}", articles.HandleGet)
			r.Get("/articles/{slug}/comments", comments.HandleList)
		})

		// Identity required
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/user", users.HandleCurrent)
			r.Put("/user", users.HandleUpdate)

			r.Post("/profiles/{username}/follow", profiles.HandleFollow)
			r.Delete("/profiles/{username}/follow", profiles.HandleUnfollow)

			r.Get("/articles/feed", articles.HandleFeed)
			r.Post("/articles", articles.HandleCreate)
			r.Put("/articles/{slug}", articles.HandleUpdate)
			r.Delete("/articles/{slug}", articles.HandleDelete)
			r.Post("/articles/{slug}/favorite", articles.HandleFavorite)
			r.Delete("/articles/{slug}/favorite", articles.HandleUnfavorite)

			r.Post("/articles/{slug}/comments", comments.HandleCreate)
			r.Delete("/articles/{slug}/comments/{id}", comments.HandleDelete)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
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
			slog.String("url", fmt.Sprintf("http://localhost:%d/api", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
