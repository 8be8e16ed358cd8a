package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds a readiness endpoint probing the session store
// and, when configured, Redis and PostgreSQL.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{"session_store": probe(d.Store.Ping(ctx))}
		healthy := checks["session_store"] == "ok"
		if d.DB != nil {
			checks["postgres"] = probe(d.DB.Ping(ctx))
			healthy = healthy && checks["postgres"] == "ok"
		}
		if d.Cache != nil {
			checks["redis"] = probe(d.Cache.Ping(ctx).Err())
			healthy = healthy && checks["redis"] == "ok"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    checks,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

func probe(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
