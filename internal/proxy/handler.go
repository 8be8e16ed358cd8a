// Package proxy forwards browser calls to the directory so that the browser
// only ever talks to this origin.
package proxy

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberproxy "github.com/gofiber/fiber/v2/middleware/proxy"

	"github.com/bdays-network/bdays/internal/directory"
)

// Handler maps an allow-list of path segments to directory endpoints.
type Handler struct {
	endpoints map[string]string
	logger    *slog.Logger
}

// NewHandler builds a proxy over the given endpoints.
func NewHandler(endpoints directory.Endpoints, logger *slog.Logger) *Handler {
	return &Handler{endpoints: endpoints.ByPath(), logger: logger}
}

// Forward relays the request to the endpoint named by the wildcard path
// segment. Only GET and POST are relayed: query strings (GET) and bodies
// (POST) are passed verbatim and the directory's status and body come back
// unchanged.
func (h *Handler) Forward(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodPost:
	default:
		c.Set(fiber.HeaderAllow, "GET, POST")
		return c.Status(http.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method not allowed"})
	}

	path := strings.Trim(c.Params("*"), "/")
	endpoint, ok := h.endpoints[path]
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Invalid endpoint"})
	}

	target := endpoint
	if c.Method() == fiber.MethodGet {
		if q := c.Context().QueryArgs().QueryString(); len(q) > 0 {
			target += "?" + string(q)
		}
	}

	// browser session state stays on this origin
	c.Request().Header.Del(fiber.HeaderCookie)
	c.Request().Header.Del(fiber.HeaderAuthorization)

	h.logger.Debug("proxying request", slog.String("method", c.Method()), slog.String("target", target))

	if err := fiberproxy.Do(c, target); err != nil {
		h.logger.Error("proxy error", slog.String("target", target), slog.Any("error", err))
		c.Response().Reset()
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Proxy error", "details": err.Error()})
	}

	c.Response().Header.Del(fiber.HeaderSetCookie)
	if msg, failed := directory.EmbeddedError(c.Response().Body()); failed {
		h.logger.Warn("directory returned error", slog.String("path", path), slog.Int("status", c.Response().StatusCode()), slog.String("message", msg))
	}
	return nil
}
