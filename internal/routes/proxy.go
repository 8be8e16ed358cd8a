package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bdays-network/bdays/internal/proxy"
)

// RegisterProxyRoutes exposes the directory pass-through under /proxy.
func RegisterProxyRoutes(r fiber.Router, h *proxy.Handler) {
	r.Get("/proxy/*", h.Forward)
	r.Post("/proxy/*", h.Forward)
}
