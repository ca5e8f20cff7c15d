// Package funding moves money between cards and ledger accounts through the
// per-currency suspense accounts.
package funding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/congo-pay/bank_ledger/internal/events"
	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

// Service coordinates card funding and withdrawal operations using the ledger and acquirer connector.
type Service struct {
	store     ledger.Store
	acquirer  Acquirer
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService prepares a funding service ensuring every suspense account exists.
func NewService(ctx context.Context, store ledger.Store, acquirer Acquirer, publisher events.Publisher, logger *slog.Logger) (*Service, error) {
	if acquirer == nil {
		acquirer = StaticAcquirer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	for _, cur := range money.Supported() {
		if _, err := ledger.SuspenseAccount(ctx, store, cur); err != nil {
			return nil, fmt.Errorf("ensure %s suspense account: %w", cur, err)
		}
	}
	return &Service{store: store, acquirer: acquirer, publisher: publisher, logger: logger}, nil
}

// Input is a card operation against one of the caller's accounts.
type Input struct {
	UserID     int64
	AccountID  int64
	Amount     string
	CardNumber string
}

// Result is the outcome of an approved card operation.
type Result struct {
	Transaction       ledger.Transaction
	AcquirerReference string
}

// Deposit authorizes a card top-up and credits the account.
func (s *Service) Deposit(ctx context.Context, in Input) (Result, error) {
	return s.run(ctx, in, ledger.KindDeposit)
}

// Withdraw authorizes a card payout and debits the account.
func (s *Service) Withdraw(ctx context.Context, in Input) (Result, error) {
	return s.run(ctx, in, ledger.KindWithdrawal)
}

func (s *Service) run(ctx context.Context, in Input, kind ledger.Kind) (Result, error) {
	if err := validateCardNumber(in.CardNumber); err != nil {
		return Result{}, err
	}
	amount, err := money.Parse(in.Amount)
	if err != nil {
		return Result{}, err
	}

	var acct ledger.Account
	if err := s.store.View(ctx, func(r ledger.Reader) error {
		var err error
		acct, err = r.Account(ctx, in.AccountID)
		return err
	}); err != nil {
		return Result{}, err
	}
	if acct.UserID != in.UserID {
		return Result{}, ledger.ErrNotOwner
	}
	if kind == ledger.KindWithdrawal && acct.Balance < amount {
		s.recordFailure(ctx, in, kind, acct.Currency, ledger.ErrInsufficientFunds)
		return Result{}, ledger.ErrInsufficientFunds
	}

	auth := CardAuthorization{CardNumber: in.CardNumber, Amount: amount, Currency: acct.Currency}
	var decision AuthorizationDecision
	if kind == ledger.KindDeposit {
		decision, err = s.acquirer.AuthorizeCardIn(ctx, auth)
	} else {
		decision, err = s.acquirer.AuthorizeCardOut(ctx, auth)
	}
	if err != nil {
		s.recordFailure(ctx, in, kind, acct.Currency, err)
		return Result{}, err
	}

	var tx ledger.Transaction
	if kind == ledger.KindDeposit {
		tx, err = ledger.Deposit(ctx, s.store, in.UserID, in.AccountID, amount)
	} else {
		tx, err = ledger.Withdraw(ctx, s.store, in.UserID, in.AccountID, amount)
	}
	if err != nil {
		// The balance is only final under the ledger lock, so an approval can
		// still fail to post. Cancel it with the acquirer.
		s.void(ctx, decision.Reference, kind)
		s.recordFailure(ctx, in, kind, acct.Currency, err)
		return Result{}, err
	}

	s.logger.Info("card funding completed",
		"tx_id", tx.ID,
		"type", string(kind),
		"account_id", in.AccountID,
		"amount", amount.String(),
		"currency", string(tx.Currency),
		"acquirer_reference", decision.Reference,
	)
	events.Notify(ctx, s.publisher, s.logger, events.TransactionCompleted{
		TxID:        tx.ID,
		UserID:      in.UserID,
		Type:        kind,
		FromAccount: in.AccountID,
		ToAccount:   in.AccountID,
		Amount:      amount,
		Currency:    tx.Currency,
	})
	return Result{Transaction: tx, AcquirerReference: decision.Reference}, nil
}

func (s *Service) void(ctx context.Context, reference string, kind ledger.Kind) {
	if err := s.acquirer.Void(ctx, reference); err != nil {
		s.logger.Error("void card authorization", "acquirer_reference", reference, "type", string(kind), "error", err)
		return
	}
	s.logger.Warn("card authorization voided", "acquirer_reference", reference, "type", string(kind))
}

func (s *Service) recordFailure(ctx context.Context, in Input, kind ledger.Kind, currency money.Currency, cause error) {
	failed, err := ledger.Record(ctx, s.store, in.UserID, kind, currency)
	if err != nil {
		s.logger.Error("record failed card operation", "user_id", in.UserID, "error", err)
		return
	}
	s.logger.Warn("card operation rejected", "tx_id", failed.ID, "type", string(kind), "reason", cause.Error())
}

func validateCardNumber(card string) error {
	digits := strings.ReplaceAll(card, " ", "")
	if len(digits) < 12 || len(digits) > 19 {
		return fmt.Errorf("%w: card number must be between 12 and 19 digits", ledger.ErrInvalidRequest)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: card number must be numeric", ledger.ErrInvalidRequest)
		}
	}
	return nil
}
