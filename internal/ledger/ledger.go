package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/congo-pay/bank_ledger/internal/money"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound is returned when an account id does not resolve.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a transaction id does not resolve.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrCurrencyMismatch is returned when a same-currency operation spans currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrNotOwner indicates the caller does not own an account it tried to debit.
	ErrNotOwner = errors.New("account not owned by caller")

	// ErrSameAccount is returned when source and destination are identical.
	ErrSameAccount = errors.New("source and destination accounts must differ")

	// ErrNotExchangePair is returned when an exchange does not run between the
	// caller's two quoted currencies.
	ErrNotExchangePair = errors.New("accounts are not an exchange pair")

	// ErrInvalidRequest covers malformed identifiers and filters.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConflict is a transient concurrency failure that survived every retry.
	ErrConflict = errors.New("concurrent update conflict, retry later")

	// ErrTransactionClosed prevents a finished transaction from changing status again.
	ErrTransactionClosed = errors.New("transaction already finished")

	// ErrNotLocked is returned when a unit of work mutates an account it did not lock.
	ErrNotLocked = errors.New("account not locked by this unit of work")
)

// SystemUserID owns the per-currency suspense accounts that mirror external funding.
const SystemUserID int64 = 0

// Kind is the tagged variant of a logical operation. Its string form is the
// wire representation.
type Kind string

const (
	KindTransfer   Kind = "transfer"
	KindExchange   Kind = "exchange"
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

// ParseKind validates a wire type filter.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(raw); k {
	case KindTransfer, KindExchange, KindDeposit, KindWithdrawal:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalidRequest, raw)
}

// Status is the lifecycle state of a Transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Account holds the cached balance of one user in one currency.
type Account struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userID"`
	Currency  money.Currency `json:"currency"`
	Balance   money.Amount   `json:"balance"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Entry is an immutable posting. Positive amounts credit, negative amounts debit.
type Entry struct {
	ID        int64          `json:"id"`
	AccountID int64          `json:"accountID"`
	TxID      int64          `json:"txID"`
	Amount    money.Amount   `json:"amount"`
	Currency  money.Currency `json:"currency"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Transaction records one logical user action.
type Transaction struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userID"`
	Type      Kind           `json:"type"`
	Status    Status         `json:"status"`
	Currency  money.Currency `json:"currency"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Page is an offset window. Page numbers start at 1.
type Page struct {
	Page  int
	Limit int
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps Offset from overflowing at any limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Normalize clamps the window to sane defaults.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// EntryFilter selects postings. A non-zero VisibleTo restricts results to
// postings on that user's accounts or belonging to transactions they initiated.
type EntryFilter struct {
	VisibleTo int64
	TxID      int64
	AccountID int64
	Page      Page
}

// TransactionFilter selects transactions initiated by UserID.
type TransactionFilter struct {
	UserID int64
	Type   Kind
	Page   Page
}

// Reader is a consistent read-only view of the ledger.
type Reader interface {
	Account(ctx context.Context, id int64) (Account, error)
	AccountsByUser(ctx context.Context, userID int64) ([]Account, error)
	AllAccounts(ctx context.Context) ([]Account, error)
	// LedgerSums returns the sum of postings per requested account. Accounts
	// without postings map to zero.
	LedgerSums(ctx context.Context, accountIDs []int64) (map[int64]money.Amount, error)
	Entries(ctx context.Context, filter EntryFilter) ([]Entry, error)
	Transaction(ctx context.Context, id int64) (Transaction, error)
	Transactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
}

// Tx is a unit of work. Nothing it stages is visible to other readers until
// the surrounding Update commits, and nothing is applied if it fails.
type Tx interface {
	Account(ctx context.Context, id int64) (Account, error)
	// SetBalance overwrites the cached balance of an account locked by this unit of work.
	SetBalance(ctx context.Context, accountID int64, balance money.Amount) error
	// AppendEntries stores postings and returns them with ids and timestamps.
	AppendEntries(ctx context.Context, entries ...Entry) ([]Entry, error)
	// BeginTransaction stores a pending transaction and returns it with its id.
	BeginTransaction(ctx context.Context, userID int64, kind Kind, currency money.Currency) (Transaction, error)
	// FinishTransaction moves a pending transaction to completed or failed.
	FinishTransaction(ctx context.Context, id int64, status Status) error
	// LedgerSum returns the posting total of a single account.
	LedgerSum(ctx context.Context, accountID int64) (money.Amount, error)
}

// Store is the transaction boundary around the Ledger Store, the Account
// Registry and the Transaction Log.
type Store interface {
	// Update runs fn as one atomic unit of work holding exclusive locks on
	// accountIDs. Overlapping units serialize; disjoint ones run in parallel.
	Update(ctx context.Context, accountIDs []int64, fn func(tx Tx) error) error
	// View runs fn against a consistent snapshot.
	View(ctx context.Context, fn func(r Reader) error) error
	// EnsureAccount returns the (userID, currency) account, creating it when absent.
	EnsureAccount(ctx context.Context, userID int64, currency money.Currency) (Account, error)
}

// Post appends a double-entry posting set and moves the cached balances of the
// touched accounts by the same amounts. All accounts must be locked by tx.
func Post(ctx context.Context, tx Tx, txID int64, entries ...Entry) error {
	balances := make(map[int64]money.Amount, len(entries))
	for i := range entries {
		entries[i].TxID = txID
		id := entries[i].AccountID
		if _, seen := balances[id]; seen {
			continue
		}
		acct, err := tx.Account(ctx, id)
		if err != nil {
			return err
		}
		balances[id] = acct.Balance
	}
	if _, err := tx.AppendEntries(ctx, entries...); err != nil {
		return err
	}
	for _, e := range entries {
		balances[e.AccountID] += e.Amount
	}
	for id, bal := range balances {
		if err := tx.SetBalance(ctx, id, bal); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a transaction that failed a business rule so the attempt stays
// auditable. It touches no balances or postings.
func Record(ctx context.Context, store Store, userID int64, kind Kind, currency money.Currency) (Transaction, error) {
	var out Transaction
	err := store.Update(ctx, nil, func(tx Tx) error {
		t, err := tx.BeginTransaction(ctx, userID, kind, currency)
		if err != nil {
			return err
		}
		if err := tx.FinishTransaction(ctx, t.ID, StatusFailed); err != nil {
			return err
		}
		t.Status = StatusFailed
		out = t
		return nil
	})
	return out, err
}
