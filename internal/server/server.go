package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/netvoya/backend/config"
	"github.com/netvoya/backend/internal/auth"
	"github.com/netvoya/backend/internal/db"
	"github.com/netvoya/backend/internal/events"
	"github.com/netvoya/backend/internal/handlers"
	"github.com/netvoya/backend/internal/services"
	"github.com/netvoya/backend/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	audit      *events.Stream
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	audit, err := events.New(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo, audit)
	issuer := auth.NewIssuer(cfg.JWTSecret)

	usersHandler := handlers.NewUsersHandler(userService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.NotFound(handlers.NotFound)
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health(dbConn))
		r.Get("/users", usersHandler.ListUsers)
		handlers.AuthRouter(r, userService, issuer)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 3001
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		audit:      audit,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.audit != nil {
		_ = s.audit.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
