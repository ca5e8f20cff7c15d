package ledger

import (
	"context"
	"fmt"

	"github.com/congo-pay/bank_ledger/internal/money"
)

// Deposit credits accountID with funds arriving from outside the ledger. The
// matching debit lands on the currency's suspense account, so the posting set
// still nets to zero.
func Deposit(ctx context.Context, store Store, userID, accountID int64, amount money.Amount) (Transaction, error) {
	return moveSuspense(ctx, store, userID, accountID, amount, KindDeposit)
}

// Withdraw debits accountID for funds leaving the ledger and credits the
// currency's suspense account.
func Withdraw(ctx context.Context, store Store, userID, accountID int64, amount money.Amount) (Transaction, error) {
	return moveSuspense(ctx, store, userID, accountID, amount, KindWithdrawal)
}

// SuspenseAccount returns the system account that mirrors external funding in currency.
func SuspenseAccount(ctx context.Context, store Store, currency money.Currency) (Account, error) {
	return store.EnsureAccount(ctx, SystemUserID, currency)
}

func moveSuspense(ctx context.Context, store Store, userID, accountID int64, amount money.Amount, kind Kind) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, fmt.Errorf("%w: amount must be greater than 0", money.ErrInvalidAmount)
	}

	var acct Account
	if err := store.View(ctx, func(r Reader) error {
		var err error
		acct, err = r.Account(ctx, accountID)
		return err
	}); err != nil {
		return Transaction{}, err
	}
	if acct.UserID != userID {
		return Transaction{}, ErrNotOwner
	}

	suspense, err := SuspenseAccount(ctx, store, acct.Currency)
	if err != nil {
		return Transaction{}, err
	}

	signed := amount
	if kind == KindWithdrawal {
		signed = amount.Neg()
	}

	var out Transaction
	err = store.Update(ctx, []int64{accountID, suspense.ID}, func(tx Tx) error {
		current, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if kind == KindWithdrawal && current.Balance < amount {
			return ErrInsufficientFunds
		}
		t, err := tx.BeginTransaction(ctx, userID, kind, current.Currency)
		if err != nil {
			return err
		}
		if err := Post(ctx, tx, t.ID,
			Entry{AccountID: accountID, Amount: signed, Currency: current.Currency},
			Entry{AccountID: suspense.ID, Amount: signed.Neg(), Currency: current.Currency},
		); err != nil {
			return err
		}
		if err := tx.FinishTransaction(ctx, t.ID, StatusCompleted); err != nil {
			return err
		}
		t.Status = StatusCompleted
		out = t
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return out, nil
}
