package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/identity"
)

// JWTAuth validates bearer tokens and rejects tokens whose user no longer exists.
// The role stored with the user wins over the role in the token.
func JWTAuth(issuer *auth.Issuer, users identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := issuer.Verify(strings.TrimSpace(authz[len("bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		user, err := users.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "unknown user")
		}
		claims.Role = user.Role
		claims.Email = user.Email

		auth.SetPrincipal(c, claims)
		return c.Next()
	}
}

// RequireRole rejects authenticated callers without role. It must run after JWTAuth.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth.Role(c) != role {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
