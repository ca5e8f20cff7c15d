package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/identity"
	"github.com/congo-pay/bank_ledger/internal/middleware"
	"github.com/congo-pay/bank_ledger/internal/reconcile"
)

// RegisterAdminRoutes wires operator endpoints; callers must hold the admin role.
func RegisterAdminRoutes(r fiber.Router, h *reconcile.Handler) {
	group := r.Group("/admin", middleware.RequireRole(identity.RoleAdmin))
	group.Get("/reconcile", h.All)
	group.Post("/accounts/:id/correct", h.Correct)
}
