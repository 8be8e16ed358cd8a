package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bdays-network/bdays/internal/config"
	"github.com/bdays-network/bdays/internal/directory"
	"github.com/bdays-network/bdays/internal/infra"
	"github.com/bdays-network/bdays/internal/middleware"
	"github.com/bdays-network/bdays/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	backends *infra.Backends
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, backends *infra.Backends, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	client := directory.NewClient(cfg.Directory.Endpoints, directory.Options{
		WriteMethod:  cfg.Directory.WriteMethod,
		FriendParams: cfg.Directory.FriendParams,
	})

	deps := routes.Deps{
		Cfg:       cfg,
		Directory: client,
		Store:     backends.Store,
		DB:        backends.DB,
		Cache:     backends.Redis,
		Logger:    logger,
	}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, backends: backends}, nil
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
