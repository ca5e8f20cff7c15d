package reconcile

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/accounts"
	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/httperr"
)

// Handler exposes reconciliation endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mine reconciles the caller's accounts.
func (h *Handler) Mine(c *fiber.Ctx) error {
	report, err := h.service.ForUser(c.UserContext(), auth.UserID(c))
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(report)
}

// All reconciles every account. Admin only.
func (h *Handler) All(c *fiber.Ctx) error {
	report, err := h.service.ForAll(c.UserContext())
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(report)
}

// Correct repairs one account's cached balance. Admin only.
func (h *Handler) Correct(c *fiber.Ctx) error {
	id, err := accounts.ParamID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.service.Correct(c.UserContext(), id)
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(out)
}
