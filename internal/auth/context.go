package auth

import "github.com/gofiber/fiber/v2"

const (
	localsUserID = "user_id"
	localsRole   = "role"
	localsEmail  = "email"
)

// SetPrincipal stores verified claims on the request.
func SetPrincipal(c *fiber.Ctx, claims Claims) {
	c.Locals(localsUserID, claims.UserID)
	c.Locals(localsRole, claims.Role)
	c.Locals(localsEmail, claims.Email)
}

// UserID returns the authenticated user id, or 0 on unauthenticated routes.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localsUserID).(int64)
	return id
}

// Role returns the authenticated user's role.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(localsRole).(string)
	return role
}
