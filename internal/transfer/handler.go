package transfer

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/httperr"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Request is the JSON body shared by transfers and exchanges.
type Request struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
}

// Transfer processes a same-currency transfer.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if _, err := h.engine.Transfer(c.UserContext(), Input{
		UserID:        auth.UserID(c),
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
	}); err != nil {
		return httperr.From(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "transfer completed"})
}
