package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/exchange"
	"github.com/congo-pay/bank_ledger/internal/history"
	"github.com/congo-pay/bank_ledger/internal/transfer"
)

// RegisterTransactionRoutes wires money movement and the history queries.
func RegisterTransactionRoutes(r fiber.Router, hh *history.Handler, th *transfer.Handler, eh *exchange.Handler) {
	r.Get("/transactions", hh.Transactions)
	r.Post("/transactions/transfer", th.Transfer)
	r.Post("/transactions/exchange", eh.Exchange)
	r.Get("/exchange/rate", eh.Rate)
	r.Get("/ledger", hh.Entries)
}
