package history

import (
	"context"
	"errors"
	"testing"

	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/logging"
	"github.com/congo-pay/bank_ledger/internal/money"
	"github.com/congo-pay/bank_ledger/internal/transfer"
)

func TestTransactions_SecondPageHoldsTheRemainder(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewInMemory()
	a, _ := store.EnsureAccount(ctx, 1, money.USD)
	b, _ := store.EnsureAccount(ctx, 2, money.USD)
	if _, err := ledger.Deposit(ctx, store, 1, a.ID, 100_000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	engine := transfer.NewEngine(store, nil, logging.Discard())
	for i := 0; i < 24; i++ {
		if _, err := engine.Transfer(ctx, transfer.Input{UserID: 1, FromAccountID: a.ID, ToAccountID: b.ID, Amount: "1.00"}); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}
	svc := NewService(store)

	first, err := svc.Transactions(ctx, TransactionQuery{UserID: 1, Page: ledger.Page{Page: 1, Limit: 20}})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	second, err := svc.Transactions(ctx, TransactionQuery{UserID: 1, Page: ledger.Page{Page: 2, Limit: 20}})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(first) != 20 || len(second) != 5 {
		t.Fatalf("expected 20 + 5 rows, got %d + %d", len(first), len(second))
	}
	if second[0].ID <= first[19].ID {
		t.Fatalf("pages overlap: %d after %d", second[0].ID, first[19].ID)
	}

	transfers, _ := svc.Transactions(ctx, TransactionQuery{UserID: 1, Type: ledger.KindTransfer, Page: ledger.Page{Limit: 100}})
	if len(transfers) != 24 {
		t.Fatalf("expected 24 transfers, got %d", len(transfers))
	}

	empty, _ := svc.Transactions(ctx, TransactionQuery{UserID: 1, Page: ledger.Page{Page: 3, Limit: 20}})
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected an empty non-nil page, got %v", empty)
	}
}

func TestEntries_VisibilityRules(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewInMemory()
	a, _ := store.EnsureAccount(ctx, 1, money.USD)
	b, _ := store.EnsureAccount(ctx, 2, money.USD)
	c, _ := store.EnsureAccount(ctx, 3, money.USD)
	_, _ = ledger.Deposit(ctx, store, 1, a.ID, 5_000)
	_, _ = ledger.Deposit(ctx, store, 3, c.ID, 5_000)
	engine := transfer.NewEngine(store, nil, logging.Discard())
	sent, err := engine.Transfer(ctx, transfer.Input{UserID: 1, FromAccountID: a.ID, ToAccountID: b.ID, Amount: "10.00"})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	svc := NewService(store)

	// The sender sees both legs of their own transfer, including the posting on b.
	legs, err := svc.Entries(ctx, EntryQuery{UserID: 1, TxID: sent.ID})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("expected both legs, got %d", len(legs))
	}

	// The recipient sees only the posting on their own account.
	legs, _ = svc.Entries(ctx, EntryQuery{UserID: 2, TxID: sent.ID})
	if len(legs) != 1 || legs[0].AccountID != b.ID {
		t.Fatalf("expected only b's leg, got %+v", legs)
	}

	// User 3's deposit is invisible to user 1.
	all, _ := svc.Entries(ctx, EntryQuery{UserID: 1})
	for _, e := range all {
		if e.AccountID == c.ID {
			t.Fatalf("leaked posting %+v", e)
		}
	}

	if _, err := svc.Entries(ctx, EntryQuery{UserID: 1, AccountID: c.ID}); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
