// Package server is the composition root: it wires the repositories,
// services, handlers, and middleware into a chi router and runs the
// HTTP server with graceful shutdown.
//
// ROUTE MAP:
//
//	POST /signup             open
//	POST /login              open
//	POST /logout             open (works with or without a session)
//	POST /refresh-token      open (authenticates via the refresh cookie)
//	POST /reset-password     session
//	POST   /uploads          session
//	GET    /uploads          session
//	PUT    /uploads/{id}     session
//	DELETE /uploads/{id}     session
//	POST /uploads/rearrange  session
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

	"github.com/sakif/gallery-api/internal/auth"
	"github.com/sakif/gallery-api/internal/config"
	"github.com/sakif/gallery-api/internal/handler"
	"github.com/sakif/gallery-api/internal/media"
	"github.com/sakif/gallery-api/internal/middleware"
	sqliteRepo "github.com/sakif/gallery-api/internal/repository/sqlite"
	"github.com/sakif/gallery-api/internal/service"
)

// Server owns the router and the resources that need closing on
// shutdown (currently just the database).
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the whole dependency chain:
//
//	sqlite.DB → services → handlers → routes
//
// Each layer receives only the interfaces it needs; the handler never
// touches the database, the service never touches HTTP. Secrets are
// validated here (via NewTokenService), so a misconfigured process
// refuses to start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	if err != nil {
		db.Close()
		return nil, err
	}

	store, err := media.NewS3Store(ctx, media.S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Endpoint:     cfg.S3Endpoint,
		UsePathStyle: cfg.S3UsePathStyle,
		BaseURL:      cfg.MediaBaseURL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating media store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, store)
	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService, store media.Store) {
	// Global middleware, in execution order.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.cfg.AllowedOrigin))

	passwords := auth.NewPasswordService()
	cookies := auth.NewCookieWriter(s.cfg.Production)

	authSvc := service.NewAuthService(s.db, passwords, tokens, s.logger)
	uploadSvc := service.NewUploadService(s.db, store, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, cookies, s.logger)
	uploadHandler := handler.NewUploadHandler(uploadSvc, s.logger)

	// Open routes. Logout stays ungated on purpose: clearing cookies must
	// work even when the session is already expired.
	s.router.Post("/signup", authHandler.HandleSignup)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/logout", authHandler.HandleLogout)
	s.router.Post("/refresh-token", authHandler.HandleRefresh)

	// Session-gated routes.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(tokens, s.db))

		r.Post("/reset-password", authHandler.HandleResetPassword)
		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", uploadHandler.HandleBulkUpload)
			r.Get("/", uploadHandler.HandleList)
			r.Put("/{id}", uploadHandler.HandleEdit)
			r.Delete("/{id}", uploadHandler.HandleDelete)
			r.Post("/rearrange", uploadHandler.HandleRearrange)
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database (flushing the
// WAL and releasing the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
			slog.Bool("production", s.cfg.Production),
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
