// Package seed creates demo users with opening balances.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/congo-pay/bank_ledger/internal/accounts"
	"github.com/congo-pay/bank_ledger/internal/config"
	"github.com/congo-pay/bank_ledger/internal/identity"
	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

// DemoUsers is used in development when no seed users are configured.
func DemoUsers() []config.SeedUser {
	return []config.SeedUser{
		{Email: "alice@example.com", Name: "Alice", Password: "password123", Balances: map[string]string{"USD": "1000.00", "EUR": "500.00"}},
		{Email: "bob@example.com", Name: "Bob", Password: "password123", Balances: map[string]string{"USD": "500.00", "EUR": "1000.00"}},
		{Email: "admin@example.com", Name: "Admin", Password: "password123", Role: identity.RoleAdmin},
	}
}

// Apply creates every user that does not exist yet and funds their accounts
// through the suspense accounts, so seeded balances reconcile. Existing users
// are left untouched.
func Apply(ctx context.Context, users []config.SeedUser, ids *identity.Service, accts *accounts.Service, store ledger.Store, logger *slog.Logger) error {
	for _, u := range users {
		if _, err := ids.FindByEmail(ctx, u.Email); err == nil {
			continue
		} else if !errors.Is(err, identity.ErrUserNotFound) {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}

		user, err := ids.Register(ctx, identity.Registration{Email: u.Email, Password: u.Password, Name: u.Name, Role: u.Role})
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
		if err := accts.OpenDefault(ctx, user.ID); err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}

		for code, raw := range u.Balances {
			cur, err := money.ParseCurrency(code)
			if err != nil {
				return fmt.Errorf("seed %s: %w", u.Email, err)
			}
			amount, err := money.Parse(raw)
			if err != nil {
				return fmt.Errorf("seed %s %s: %w", u.Email, code, err)
			}
			acct, err := store.EnsureAccount(ctx, user.ID, cur)
			if err != nil {
				return err
			}
			if _, err := ledger.Deposit(ctx, store, user.ID, acct.ID, amount); err != nil {
				return fmt.Errorf("seed %s %s: %w", u.Email, code, err)
			}
		}
		logger.Info("seeded user", "email", user.Email, "user_id", user.ID, "role", user.Role)
	}
	return nil
}
