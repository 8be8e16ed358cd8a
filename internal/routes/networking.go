package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bdays-network/bdays/internal/networking"
)

// RegisterNetworkingRoutes wires the attendee endpoints. loginLimiter guards
// login; idempotency guards the writes that change points or the directory.
func RegisterNetworkingRoutes(r fiber.Router, h *networking.Handler, loginLimiter, idempotency fiber.Handler) {
	r.Post("/register", idempotency, h.Register)
	r.Post("/login", loginLimiter, h.Login)
	r.Post("/logout", h.Logout)

	r.Get("/me", h.Me)
	r.Patch("/me", h.UpdateProfile)
	r.Post("/me/refresh", h.Refresh)

	r.Get("/users/search", h.Search)
	r.Post("/connect", idempotency, h.Connect)
	r.Get("/leaderboard", h.Leaderboard)

	r.Post("/test-registration", h.TestRegistration)
}
