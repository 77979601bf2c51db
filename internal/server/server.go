// Package server wires the gateway, services and handlers into one chi
// router and runs the HTTP server.
//
// This is the composition root: New opens the database, builds every
// dependency once and registers the routes. Nothing below this package
// knows about the others' constructors.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/config"
	"github.com/sakif/reelhub/internal/handler"
	"github.com/sakif/reelhub/internal/middleware"
	"github.com/sakif/reelhub/internal/repository/sqlstore"
	"github.com/sakif/reelhub/internal/service"
	"github.com/sakif/reelhub/web"
)

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqlstore.DB
}

// New opens the database, seeds the first admin when configured, and sets up
// the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBDriver == sqlstore.DriverSQLite && cfg.DBDSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
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

// setupRoutes registers every route.
//
// GET  /                         project list
// GET  /player/{project}         player
// GET  /login, POST /login       login form / attempt
// GET  /logout                   drop the session
// GET  /sessions                 sessions of the logged-in user      (login)
// GET  /sessions/{id}/edit       roster editor                       (login)
// POST /sessions/{id}/edit
// POST /progress/{project}       give, revoke, bookmark              (login)
// GET  /admin/categories         category list                       (admin)
// POST /admin/categories
// GET  /admin/categories/{id}    category editor                     (admin)
// POST /admin/categories/{id}
// POST /admin/projects           create project                      (admin)
// GET  /admin/projects/{id}      project and video editor            (admin)
// POST /admin/projects/{id}
// POST /admin/sessions           create session                      (admin)
// GET  /static/*                 assets
func (s *Server) setupRoutes() error {
	renderer, err := handler.NewTemplateRenderer(web.Templates())
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	identities := auth.NewIdentityStore(auth.NewCookieStore(s.config.SessionKey, s.config.SecureCookies))
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, passwords, s.logger)
	catalogService := service.NewCatalogService(s.db, s.logger)
	sessionService := service.NewSessionService(s.db, passwords, s.logger)
	progressService := service.NewProgressService(s.db, s.logger)

	if err := s.seedAdmin(authService); err != nil {
		return err
	}

	catalogHandler := handler.NewCatalogHandler(catalogService, progressService, renderer, identities, s.logger)
	authHandler := handler.NewAuthHandler(authService, renderer, identities, s.logger)
	sessionHandler := handler.NewSessionHandler(sessionService, renderer, identities, s.logger)
	adminHandler := handler.NewAdminHandler(catalogService, sessionService, renderer, identities, s.logger)
	progressHandler := handler.NewProgressHandler(progressService, renderer, identities, s.logger)

	forbidden := http.HandlerFunc(catalogHandler.Forbidden)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(auth.LoadIdentity(identities, s.logger))
	r.Use(auth.VerifyCSRF(identities, forbidden))

	r.NotFound(catalogHandler.NotFound)

	static, err := s.staticFiles()
	if err != nil {
		return err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", catalogHandler.HandleHome)
	r.Get("/player/{project}", catalogHandler.HandlePlayer)

	r.Get("/login", authHandler.HandleLoginForm)
	r.Post("/login", authHandler.HandleLogin)
	r.Get("/logout", authHandler.HandleLogout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)
		r.Get("/sessions", sessionHandler.HandleList)
		r.Get("/sessions/{id}/edit", sessionHandler.HandleEditForm)
		r.Post("/sessions/{id}/edit", sessionHandler.HandleEdit)
		r.Post("/progress/{project}", progressHandler.HandleProgress)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin(forbidden))
		r.Get("/categories", adminHandler.HandleCategories)
		r.Post("/categories", adminHandler.HandleAddCategory)
		r.Get("/categories/{id}", adminHandler.HandleCategory)
		r.Post("/categories/{id}", adminHandler.HandleCategoryAction)
		r.Post("/projects", adminHandler.HandleCreateProject)
		r.Get("/projects/{id}", adminHandler.HandleProject)
		r.Post("/projects/{id}", adminHandler.HandleProjectAction)
		r.Post("/sessions", adminHandler.HandleCreateSession)
	})

	return nil
}

// staticFiles serves STATIC_DIR from disk when set, the embedded copy
// otherwise.
func (s *Server) staticFiles() (fs.FS, error) {
	if s.config.StaticDir == "" {
		return web.Static(), nil
	}
	info, err := os.Stat(s.config.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %s is not a directory", s.config.StaticDir)
	}
	return os.DirFS(s.config.StaticDir), nil
}

func (s *Server) seedAdmin(authService *service.AuthService) error {
	if s.config.AdminName == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := authService.SeedAdmin(ctx, s.config.AdminName, s.config.AdminPassword)
	if err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	if created {
		s.logger.Info("admin account created", slog.String("user", s.config.AdminName))
	}
	return nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection of a server that was never started.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the database.
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
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", s.db.Driver()),
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
