package identity

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a dashboard login.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Registration captures the fields needed to create a user.
type Registration struct {
	Email    string
	Password string
	Name     string
	Role     string
}
