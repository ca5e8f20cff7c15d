package funding

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/accounts"
	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/httperr"
)

// Handler exposes HTTP endpoints for card funding flows.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Deposit processes card top-ups.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.handle(c, h.service.Deposit, "deposit completed")
}

// Withdraw processes card withdrawals.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.handle(c, h.service.Withdraw, "withdrawal completed")
}

func (h *Handler) handle(c *fiber.Ctx, op func(ctx context.Context, in Input) (Result, error), message string) error {
	accountID, err := accounts.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CardRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	res, err := op(c.UserContext(), Input{
		UserID:     auth.UserID(c),
		AccountID:  accountID,
		Amount:     req.Amount,
		CardNumber: req.CardNumber,
	})
	if err != nil {
		if errors.Is(err, ErrDeclined) {
			return fiber.NewError(http.StatusPaymentRequired, err.Error())
		}
		return httperr.From(err)
	}
	return c.Status(http.StatusCreated).JSON(Response{
		Message:           message,
		TransactionID:     res.Transaction.ID,
		AcquirerReference: res.AcquirerReference,
	})
}
