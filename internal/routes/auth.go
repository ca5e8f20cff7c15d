package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/auth"
)

// RegisterAuthRoutes wires the public authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/register", h.Register)
}

// RegisterProfileRoutes wires endpoints about the authenticated user.
func RegisterProfileRoutes(r fiber.Router, h *auth.Handler) {
	r.Get("/auth/me", h.Me)
}
