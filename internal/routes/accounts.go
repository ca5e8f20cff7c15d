package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/accounts"
	"github.com/congo-pay/bank_ledger/internal/funding"
	"github.com/congo-pay/bank_ledger/internal/reconcile"
)

// RegisterAccountRoutes wires account listing, balances, self-service
// reconciliation and card funding.
func RegisterAccountRoutes(r fiber.Router, h *accounts.Handler, rh *reconcile.Handler, fh *funding.Handler) {
	group := r.Group("/accounts")
	group.Get("/", h.List)
	// Must precede /:id routes.
	group.Get("/reconcile", rh.Mine)
	group.Get("/:id/balance", h.Balance)
	group.Post("/:id/deposit", fh.Deposit)
	group.Post("/:id/withdraw", fh.Withdraw)
}
