package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bdays-network/bdays/internal/config"
	"github.com/bdays-network/bdays/internal/middleware"
	"github.com/bdays-network/bdays/internal/networking"
	"github.com/bdays-network/bdays/internal/notification"
	"github.com/bdays-network/bdays/internal/proxy"
	"github.com/bdays-network/bdays/internal/session"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional; Store is not.
type Deps struct {
	Cfg       config.Config
	Directory networking.Directory
	Store     session.Store
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("session store is required")
	}
	if d.Directory == nil {
		return fmt.Errorf("directory client is required")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Session(!d.Cfg.IsDev(), d.Cfg.SessionTTL))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	notifier := notification.NewLoggerNotifier(d.Logger)
	service := networking.NewService(d.Directory, d.Logger)
	handler := networking.NewHandler(service, d.Store, notifier, d.Logger)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterNetworkingRoutes(api, handler,
		middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttempts),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	RegisterProxyRoutes(api, proxy.NewHandler(d.Cfg.Directory.Endpoints, d.Logger))

	return nil
}

