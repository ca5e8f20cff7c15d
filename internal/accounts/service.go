// Package accounts provisions and reads the per-currency accounts of a user.
package accounts

import (
	"context"
	"fmt"

	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

// Service exposes account operations backed by the ledger store.
type Service struct {
	store ledger.Store
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// OpenDefault provisions one account per supported currency. It is idempotent.
func (s *Service) OpenDefault(ctx context.Context, userID int64) error {
	if userID == ledger.SystemUserID {
		return fmt.Errorf("%w: user id %d is reserved", ledger.ErrInvalidRequest, userID)
	}
	for _, cur := range money.Supported() {
		if _, err := s.store.EnsureAccount(ctx, userID, cur); err != nil {
			return fmt.Errorf("open %s account: %w", cur, err)
		}
	}
	return nil
}

// List returns the caller's accounts ordered by id.
func (s *Service) List(ctx context.Context, userID int64) ([]ledger.Account, error) {
	var out []ledger.Account
	err := s.store.View(ctx, func(r ledger.Reader) error {
		var err error
		out, err = r.AccountsByUser(ctx, userID)
		return err
	})
	return out, err
}

// Get returns an account owned by userID. Accounts owned by someone else are
// reported as not found.
func (s *Service) Get(ctx context.Context, userID, accountID int64) (ledger.Account, error) {
	var acct ledger.Account
	err := s.store.View(ctx, func(r ledger.Reader) error {
		var err error
		acct, err = r.Account(ctx, accountID)
		return err
	})
	if err != nil {
		return ledger.Account{}, err
	}
	if acct.UserID != userID {
		return ledger.Account{}, fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, accountID)
	}
	return acct, nil
}

// Balance is the cached balance of one account.
type Balance struct {
	ID       int64          `json:"id"`
	Currency money.Currency `json:"currency"`
	Balance  money.Amount   `json:"balance"`
}

// Balance returns the cached balance of an account owned by userID.
func (s *Service) Balance(ctx context.Context, userID, accountID int64) (Balance, error) {
	acct, err := s.Get(ctx, userID, accountID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{ID: acct.ID, Currency: acct.Currency, Balance: acct.Balance}, nil
}
