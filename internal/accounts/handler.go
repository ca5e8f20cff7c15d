package accounts

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/httperr"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns the caller's accounts.
func (h *Handler) List(c *fiber.Ctx) error {
	accts, err := h.service.List(c.UserContext(), auth.UserID(c))
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(accts)
}

// Balance returns the cached balance of one of the caller's accounts.
func (h *Handler) Balance(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	bal, err := h.service.Balance(c.UserContext(), auth.UserID(c), id)
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(bal)
}

// ParamID parses a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, httperr.BadRequest("invalid " + name)
	}
	return id, nil
}
