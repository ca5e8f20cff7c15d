// Package exchange converts funds between a user's USD and EUR accounts.
package exchange

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/congo-pay/bank_ledger/internal/events"
	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
	"github.com/congo-pay/bank_ledger/internal/transfer"
)

// Engine posts currency exchanges at a fixed rate.
type Engine struct {
	store     ledger.Store
	rate      money.Rate
	publisher events.Publisher
	logger    *slog.Logger
}

func NewEngine(store ledger.Store, rate money.Rate, publisher events.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, rate: rate, publisher: publisher, logger: logger}
}

// Input is an exchange request. Amount is denominated in the source currency.
type Input struct {
	UserID        int64
	FromAccountID int64
	ToAccountID   int64
	Amount        string
}

// Result is a completed exchange.
type Result struct {
	Transaction ledger.Transaction
	Debited     money.Amount
	Credited    money.Amount
}

// Rate returns the configured rate.
func (e *Engine) Rate() money.Rate {
	return e.rate
}

// Exchange debits the source account by Amount and credits the destination by
// the converted amount, rounded half-up to the cent once.
func (e *Engine) Exchange(ctx context.Context, in Input) (Result, error) {
	if in.FromAccountID <= 0 || in.ToAccountID <= 0 {
		return Result{}, fmt.Errorf("%w: account ids must be positive", ledger.ErrInvalidRequest)
	}
	if in.FromAccountID == in.ToAccountID {
		return Result{}, ledger.ErrSameAccount
	}
	amount, err := money.Parse(in.Amount)
	if err != nil {
		return Result{}, err
	}

	var (
		out      Result
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

		if from.UserID != in.UserID || to.UserID != in.UserID {
			return ledger.ErrNotOwner
		}
		if from.Currency == to.Currency || !e.rate.Covers(from.Currency, to.Currency) {
			return fmt.Errorf("%w: %s to %s", ledger.ErrNotExchangePair, from.Currency, to.Currency)
		}
		if from.Balance < amount {
			return ledger.ErrInsufficientFunds
		}
		credited, err := e.rate.Convert(amount, from.Currency, to.Currency)
		if err != nil {
			return err
		}
		if credited <= 0 {
			return fmt.Errorf("%w: converted amount rounds to zero", money.ErrInvalidAmount)
		}

		t, err := tx.BeginTransaction(ctx, in.UserID, ledger.KindExchange, from.Currency)
		if err != nil {
			return err
		}
		if err := ledger.Post(ctx, tx, t.ID,
			ledger.Entry{AccountID: from.ID, Amount: amount.Neg(), Currency: from.Currency},
			ledger.Entry{AccountID: to.ID, Amount: credited, Currency: to.Currency},
		); err != nil {
			return err
		}
		if err := tx.FinishTransaction(ctx, t.ID, ledger.StatusCompleted); err != nil {
			return err
		}
		t.Status = ledger.StatusCompleted
		out = Result{Transaction: t, Debited: amount, Credited: credited}
		return nil
	})
	if err != nil {
		e.reject(ctx, in, currency, err)
		return Result{}, err
	}

	e.logger.Info("exchange completed",
		"tx_id", out.Transaction.ID,
		"user_id", in.UserID,
		"from_account_id", in.FromAccountID,
		"to_account_id", in.ToAccountID,
		"debited", out.Debited.String(),
		"credited", out.Credited.String(),
		"rate", e.rate.String(),
	)
	events.Notify(ctx, e.publisher, e.logger, events.TransactionCompleted{
		TxID:        out.Transaction.ID,
		UserID:      in.UserID,
		Type:        ledger.KindExchange,
		FromAccount: in.FromAccountID,
		ToAccount:   in.ToAccountID,
		Amount:      out.Debited,
		Currency:    out.Transaction.Currency,
		Credited:    out.Credited,
	})
	return out, nil
}

func (e *Engine) reject(ctx context.Context, in Input, currency money.Currency, cause error) {
	if !transfer.IsBusinessRule(cause) {
		return
	}
	failed, err := ledger.Record(ctx, e.store, in.UserID, ledger.KindExchange, currency)
	if err != nil {
		e.logger.Error("record failed exchange", "user_id", in.UserID, "error", err)
		return
	}
	e.logger.Warn("exchange rejected", "tx_id", failed.ID, "user_id", in.UserID, "reason", cause.Error())
}
