// Package transfer moves funds between two accounts of the same currency.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/congo-pay/bank_ledger/internal/events"
	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

// Engine posts same-currency transfers.
type Engine struct {
	store     ledger.Store
	publisher events.Publisher
	logger    *slog.Logger
}

func NewEngine(store ledger.Store, publisher events.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, publisher: publisher, logger: logger}
}

// Input is a transfer request on behalf of UserID.
type Input struct {
	UserID        int64
	FromAccountID int64
	ToAccountID   int64
	Amount        string
}

// Transfer debits FromAccountID and credits ToAccountID by Amount in one unit
// of work. Rejections caused by business rules are recorded as failed
// transactions before the error is returned.
func (e *Engine) Transfer(ctx context.Context, in Input) (ledger.Transaction, error) {
	if in.FromAccountID <= 0 || in.ToAccountID <= 0 {
		return ledger.Transaction{}, fmt.Errorf("%w: account ids must be positive", ledger.ErrInvalidRequest)
	}
	if in.FromAccountID == in.ToAccountID {
		return ledger.Transaction{}, ledger.ErrSameAccount
	}
	amount, err := money.Parse(in.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}

	var (
		out      ledger.Transaction
		currency money.Currency
	)
	err = e.store.Update(ctx, []int64{in.FromAccountID, in.ToAccountID}, func(tx ledger.Tx) error {
		from, err := tx.Account(ctx, in.FromAccountID)
		if err != nil {
			return err
		}
		to, err := tx.Account(ctx, in.ToAccountID)
		if err != nil {
			return err
		}
		currency = from.Currency

		switch {
		case to.UserID == ledger.SystemUserID:
			// Suspense accounts only move through card funding.
			return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, to.ID)
		case from.UserID != in.UserID:
			return ledger.ErrNotOwner
		case from.Currency != to.Currency:
			return fmt.Errorf("%w: %s to %s", ledger.ErrCurrencyMismatch, from.Currency, to.Currency)
		case from.Balance < amount:
			return ledger.ErrInsufficientFunds
		}

		t, err := tx.BeginTransaction(ctx, in.UserID, ledger.KindTransfer, from.Currency)
		if err != nil {
			return err
		}
		if err := ledger.Post(ctx, tx, t.ID,
			ledger.Entry{AccountID: from.ID, Amount: amount.Neg(), Currency: from.Currency},
			ledger.Entry{AccountID: to.ID, Amount: amount, Currency: to.Currency},
		); err != nil {
			return err
		}
		if err := tx.FinishTransaction(ctx, t.ID, ledger.StatusCompleted); err != nil {
			return err
		}
		t.Status = ledger.StatusCompleted
		out = t
		return nil
	})
	if err != nil {
		e.reject(ctx, in, currency, err)
		return ledger.Transaction{}, err
	}

	e.logger.Info("transfer completed",
		"tx_id", out.ID,
		"user_id", in.UserID,
		"from_account_id", in.FromAccountID,
		"to_account_id", in.ToAccountID,
		"amount", amount.String(),
		"currency", string(out.Currency),
	)
	events.Notify(ctx, e.publisher, e.logger, events.TransactionCompleted{
		TxID:        out.ID,
		UserID:      in.UserID,
		Type:        ledger.KindTransfer,
		FromAccount: in.FromAccountID,
		ToAccount:   in.ToAccountID,
		Amount:      amount,
		Currency:    out.Currency,
	})
	return out, nil
}

func (e *Engine) reject(ctx context.Context, in Input, currency money.Currency, cause error) {
	if !IsBusinessRule(cause) {
		return
	}
	failed, err := ledger.Record(ctx, e.store, in.UserID, ledger.KindTransfer, currency)
	if err != nil {
		e.logger.Error("record failed transfer", "user_id", in.UserID, "error", err)
		return
	}
	e.logger.Warn("transfer rejected",
		"tx_id", failed.ID,
		"user_id", in.UserID,
		"from_account_id", in.FromAccountID,
		"to_account_id", in.ToAccountID,
		"reason", cause.Error(),
	)
}

// IsBusinessRule reports whether err is a rule violation that leaves an audit
// row, as opposed to a malformed request or an infrastructure failure.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ledger.ErrInsufficientFunds) ||
		errors.Is(err, ledger.ErrCurrencyMismatch) ||
		errors.Is(err, ledger.ErrNotOwner) ||
		errors.Is(err, ledger.ErrNotExchangePair)
}
