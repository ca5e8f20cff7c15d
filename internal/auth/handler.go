package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/httperr"
	"github.com/congo-pay/bank_ledger/internal/identity"
)

// Handler exposes login, registration and profile endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login validates credentials and returns a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return httperr.BadRequest("email and password are required")
	}
	token, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return httperr.From(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": token.Value})
}

// Register creates a customer with empty USD and EUR accounts.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	user, err := h.svc.Register(c.UserContext(), identity.Registration{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		return httperr.From(err)
	}
	return c.Status(http.StatusCreated).JSON(userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.svc.Me(c.UserContext(), UserID(c))
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}
