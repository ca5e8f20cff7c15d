// Package history serves the caller's transaction log and ledger postings.
package history

import (
	"context"
	"fmt"

	"github.com/congo-pay/bank_ledger/internal/ledger"
)

// Service answers paginated history queries against a consistent snapshot.
type Service struct {
	store ledger.Store
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// TransactionQuery selects the caller's transactions.
type TransactionQuery struct {
	UserID int64
	Type   ledger.Kind
	Page   ledger.Page
}

// Transactions returns the caller's transactions, oldest first.
func (s *Service) Transactions(ctx context.Context, q TransactionQuery) ([]ledger.Transaction, error) {
	out := []ledger.Transaction{}
	err := s.store.View(ctx, func(r ledger.Reader) error {
		txs, err := r.Transactions(ctx, ledger.TransactionFilter{UserID: q.UserID, Type: q.Type, Page: q.Page})
		if err != nil {
			return err
		}
		out = append(out, txs...)
		return nil
	})
	return out, err
}

// EntryQuery selects postings visible to UserID.
type EntryQuery struct {
	UserID    int64
	TxID      int64
	AccountID int64
	Page      ledger.Page
}

// Entries returns postings on the caller's accounts or belonging to
// transactions the caller initiated. Filtering by an account the caller does
// not own is reported as not found.
func (s *Service) Entries(ctx context.Context, q EntryQuery) ([]ledger.Entry, error) {
	out := []ledger.Entry{}
	err := s.store.View(ctx, func(r ledger.Reader) error {
		if q.AccountID != 0 {
			acct, err := r.Account(ctx, q.AccountID)
			if err != nil {
				return err
			}
			if acct.UserID != q.UserID {
				return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, q.AccountID)
			}
		}
		entries, err := r.Entries(ctx, ledger.EntryFilter{
			VisibleTo: q.UserID,
			TxID:      q.TxID,
			AccountID: q.AccountID,
			Page:      q.Page,
		})
		if err != nil {
			return err
		}
		out = append(out, entries...)
		return nil
	})
	return out, err
}
