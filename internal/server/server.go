// Package server wires the application together: storage, cache, services,
// handlers and routes, plus the HTTP lifecycle.
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

	"github.com/tasteboard/tasteboard/internal/auth"
	"github.com/tasteboard/tasteboard/internal/cache"
	"github.com/tasteboard/tasteboard/internal/handler"
	"github.com/tasteboard/tasteboard/internal/middleware"
	sqliteRepo "github.com/tasteboard/tasteboard/internal/repository/sqlite"
	"github.com/tasteboard/tasteboard/internal/service"
)

type Config struct {
	Port          int
	DBPath        string
	RedisAddr     string // empty disables caching (degraded mode)
	RedisPassword string
	JWTSecret     string
	AdminEmails   []string
}

type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cache  cache.Cache
}

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
		cache:  cache.New(cfg.RedisAddr, cfg.RedisPassword, logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	// Allow-list bootstrap: promote configured emails once at startup.
	// Everything after this point reads only the stored role.
	users := sqliteRepo.NewUserRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := users.PromoteAdmins(ctx, cfg.AdminEmails); err != nil {
		db.Close()
		return nil, fmt.Errorf("promoting admins: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}

	recipeRepo := sqliteRepo.NewRecipeRepo(s.db)
	categoryRepo := sqliteRepo.NewCategoryRepo(s.db)
	reviewRepo := sqliteRepo.NewReviewRepo(s.db)
	userRepo := sqliteRepo.NewUserRepo(s.db)

	recipeService := service.NewRecipeService(recipeRepo, userRepo, s.cache, s.logger)
	categoryService := service.NewCategoryService(categoryRepo, userRepo, s.cache, s.logger)
	reviewService := service.NewReviewService(reviewRepo, recipeRepo, s.cache, s.logger)

	recipeHandler := handler.NewRecipeHandler(recipeService, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService, recipeService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/recipes", recipeHandler.HandleList)
		r.Get("/recipes/{slug}", recipeHandler.HandleGet)
		r.Get("/recipes/{slug}/reviews", reviewHandler.HandleListForRecipe)
		r.Get("/categories", categoryHandler.HandleList)
		r.Get("/categories/{slug}", categoryHandler.HandleGet)
		r.Get("/search", recipeHandler.HandleSearch)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Post("/reviews", reviewHandler.HandleSubmit)

			r.Post("/recipes", recipeHandler.HandleCreate)
			r.Put("/recipes/{slug}", recipeHandler.HandleUpdate)
			r.Delete("/recipes/{slug}", recipeHandler.HandleDelete)
			r.Post("/categories", categoryHandler.HandleCreate)
			r.Put("/categories/{slug}", categoryHandler.HandleUpdate)
			r.Delete("/categories/{slug}", categoryHandler.HandleDelete)
		})
	})

	return nil
}

func (s *Server) Start() error {
	defer s.db.Close()
	defer s.cache.Close()

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
