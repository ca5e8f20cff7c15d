package exchange

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/httperr"
	"github.com/congo-pay/bank_ledger/internal/transfer"
)

// Handler exposes the exchange endpoint.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Exchange converts funds between the caller's own accounts.
func (h *Handler) Exchange(c *fiber.Ctx) error {
	var req transfer.Request
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if _, err := h.engine.Exchange(c.UserContext(), Input{
		UserID:        auth.UserID(c),
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
	}); err != nil {
		return httperr.From(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "exchange completed"})
}

// Rate returns the configured conversion rate so clients can preview an exchange.
func (h *Handler) Rate(c *fiber.Ctx) error {
	rate := h.engine.Rate()
	return c.JSON(fiber.Map{
		"base":  rate.Base,
		"quote": rate.Quote,
		"rate":  rate.Value.String(),
	})
}
