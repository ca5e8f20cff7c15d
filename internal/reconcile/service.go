// Package reconcile compares cached account balances with their ledger sums.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

// Entry is the verdict for one account. Match is exact equality.
type Entry struct {
	AccountID     int64          `json:"account_id"`
	Currency      money.Currency `json:"currency"`
	StoredBalance money.Amount   `json:"stored_balance"`
	LedgerSum     money.Amount   `json:"ledger_sum"`
	Match         bool           `json:"match"`
}

// Report is the reconciliation document. A mismatch is a result, not an error.
type Report struct {
	Accounts []Entry `json:"accounts"`
	AllMatch bool    `json:"all_match"`
}

// Correction records a repaired cached balance.
type Correction struct {
	Before Entry `json:"before"`
	After  Entry `json:"after"`
}

// Service runs read-only reconciliations and admin corrections.
type Service struct {
	store  ledger.Store
	logger *slog.Logger
}

func NewService(store ledger.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ForUser reconciles every account owned by userID against one snapshot.
func (s *Service) ForUser(ctx context.Context, userID int64) (Report, error) {
	return s.run(ctx, func(r ledger.Reader) ([]ledger.Account, error) {
		return r.AccountsByUser(ctx, userID)
	})
}

// ForAll reconciles every account in the ledger, suspense accounts included.
func (s *Service) ForAll(ctx context.Context) (Report, error) {
	report, err := s.run(ctx, func(r ledger.Reader) ([]ledger.Account, error) {
		return r.AllAccounts(ctx)
	})
	if err == nil && !report.AllMatch {
		s.logger.Warn("reconciliation mismatch", "accounts", len(report.Accounts), "mismatched", countMismatched(report))
	}
	return report, err
}

func (s *Service) run(ctx context.Context, list func(ledger.Reader) ([]ledger.Account, error)) (Report, error) {
	var report Report
	err := s.store.View(ctx, func(r ledger.Reader) error {
		accts, err := list(r)
		if err != nil {
			return err
		}
		ids := make([]int64, len(accts))
		for i, a := range accts {
			ids[i] = a.ID
		}
		sums, err := r.LedgerSums(ctx, ids)
		if err != nil {
			return err
		}
		report = build(accts, sums)
		return nil
	})
	return report, err
}

// Correct sets the cached balance of accountID to its ledger sum. No posting
// is written; the ledger stays the source of truth.
func (s *Service) Correct(ctx context.Context, accountID int64) (Correction, error) {
	var out Correction
	err := s.store.Update(ctx, []int64{accountID}, func(tx ledger.Tx) error {
		acct, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		sum, err := tx.LedgerSum(ctx, accountID)
		if err != nil {
			return err
		}
		out.Before = entryFor(acct, sum)
		if acct.Balance != sum {
			if err := tx.SetBalance(ctx, accountID, sum); err != nil {
				return err
			}
			acct.Balance = sum
		}
		out.After = entryFor(acct, sum)
		return nil
	})
	if err != nil {
		return Correction{}, err
	}
	if !out.Before.Match {
		s.logger.Warn("cached balance corrected",
			"account_id", accountID,
			"stored_balance", out.Before.StoredBalance.String(),
			"ledger_sum", out.Before.LedgerSum.String(),
		)
	}
	return out, nil
}

func build(accts []ledger.Account, sums map[int64]money.Amount) Report {
	report := Report{Accounts: make([]Entry, 0, len(accts)), AllMatch: true}
	for _, a := range accts {
		e := entryFor(a, sums[a.ID])
		report.AllMatch = report.AllMatch && e.Match
		report.Accounts = append(report.Accounts, e)
	}
	return report
}

func entryFor(a ledger.Account, sum money.Amount) Entry {
	return Entry{
		AccountID:     a.ID,
		Currency:      a.Currency,
		StoredBalance: a.Balance,
		LedgerSum:     sum,
		Match:         a.Balance == sum,
	}
}

func countMismatched(r Report) int {
	n := 0
	for _, e := range r.Accounts {
		if !e.Match {
			n++
		}
	}
	return n
}
