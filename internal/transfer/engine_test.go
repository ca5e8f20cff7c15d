package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/logging"
	"github.com/congo-pay/bank_ledger/internal/money"
)

type fixture struct {
	store  ledger.Store
	engine *Engine
	a, b   ledger.Account
	bEUR   ledger.Account
}

func newFixture(t *testing.T, fundA money.Amount) fixture {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewInMemory()
	a, _ := store.EnsureAccount(ctx, 1, money.USD)
	b, _ := store.EnsureAccount(ctx, 2, money.USD)
	bEUR, _ := store.EnsureAccount(ctx, 2, money.EUR)
	if fundA > 0 {
		if _, err := ledger.Deposit(ctx, store, 1, a.ID, fundA); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}
	return fixture{
		store:  store,
		engine: NewEngine(store, nil, logging.Discard()),
		a:      a,
		b:      b,
		bEUR:   bEUR,
	}
}

func (f fixture) balances(t *testing.T, ids ...int64) []money.Amount {
	t.Helper()
	out := make([]money.Amount, len(ids))
	err := f.store.View(context.Background(), func(r ledger.Reader) error {
		for i, id := range ids {
			acct, err := r.Account(context.Background(), id)
			if err != nil {
				return err
			}
			out[i] = acct.Balance
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return out
}

func TestEngineTransfer_MovesFundsWithTwoPostings(t *testing.T) {
	f := newFixture(t, 10_000)
	ctx := context.Background()

	tx, err := f.engine.Transfer(ctx, Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: f.b.ID, Amount: "40.00"})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if tx.Type != ledger.KindTransfer || tx.Status != ledger.StatusCompleted || tx.Currency != money.USD {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	got := f.balances(t, f.a.ID, f.b.ID)
	if got[0] != 6_000 || got[1] != 4_000 {
		t.Fatalf("expected 60.00/40.00, got %s/%s", got[0], got[1])
	}

	_ = f.store.View(ctx, func(r ledger.Reader) error {
		entries, _ := r.Entries(ctx, ledger.EntryFilter{TxID: tx.ID})
		if len(entries) != 2 {
			t.Fatalf("expected 2 postings, got %d", len(entries))
		}
		if entries[0].Amount+entries[1].Amount != 0 {
			t.Fatalf("postings do not net to zero: %s %s", entries[0].Amount, entries[1].Amount)
		}
		return nil
	})
}

func TestEngineTransfer_InsufficientFundsLeavesStateAndRecordsFailure(t *testing.T) {
	f := newFixture(t, 1_000)
	ctx := context.Background()

	_, err := f.engine.Transfer(ctx, Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: f.b.ID, Amount: "10.01"})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	got := f.balances(t, f.a.ID, f.b.ID)
	if got[0] != 1_000 || got[1] != 0 {
		t.Fatalf("balances changed: %s/%s", got[0], got[1])
	}

	_ = f.store.View(ctx, func(r ledger.Reader) error {
		entries, _ := r.Entries(ctx, ledger.EntryFilter{AccountID: f.b.ID})
		if len(entries) != 0 {
			t.Fatalf("expected no postings on destination, got %d", len(entries))
		}
		txs, _ := r.Transactions(ctx, ledger.TransactionFilter{UserID: 1, Type: ledger.KindTransfer})
		if len(txs) != 1 || txs[0].Status != ledger.StatusFailed {
			t.Fatalf("expected one failed transfer row, got %+v", txs)
		}
		return nil
	})
}

func TestEngineTransfer_Validation(t *testing.T) {
	f := newFixture(t, 10_000)
	ctx := context.Background()

	cases := []struct {
		name string
		in   Input
		want error
	}{
		{"same account", Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: f.a.ID, Amount: "1"}, ledger.ErrSameAccount},
		{"zero amount", Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: f.b.ID, Amount: "0"}, money.ErrInvalidAmount},
		{"three decimals", Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: f.b.ID, Amount: "1.005"}, money.ErrInvalidAmount},
		{"unknown account", Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: 999, Amount: "1"}, ledger.ErrAccountNotFound},
		{"not owner", Input{UserID: 2, FromAccountID: f.a.ID, ToAccountID: f.b.ID, Amount: "1"}, ledger.ErrNotOwner},
		{"currency mismatch", Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: f.bEUR.ID, Amount: "1"}, ledger.ErrCurrencyMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.engine.Transfer(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	got := f.balances(t, f.a.ID, f.b.ID, f.bEUR.ID)
	if got[0] != 10_000 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("balances changed: %v", got)
	}
}

func TestEngineTransfer_SuspenseAccountIsNotADestination(t *testing.T) {
	f := newFixture(t, 10_000)
	ctx := context.Background()
	suspense, err := ledger.SuspenseAccount(ctx, f.store, money.USD)
	if err != nil {
		t.Fatalf("suspense account: %v", err)
	}
	before := f.balances(t, suspense.ID)[0]

	_, err = f.engine.Transfer(ctx, Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: suspense.ID, Amount: "99.00"})
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	got := f.balances(t, f.a.ID, suspense.ID)
	if got[0] != 10_000 || got[1] != before {
		t.Fatalf("balances changed: account=%s suspense=%s (was %s)", got[0], got[1], before)
	}
	_ = f.store.View(ctx, func(r ledger.Reader) error {
		txs, _ := r.Transactions(ctx, ledger.TransactionFilter{UserID: 1, Type: ledger.KindTransfer})
		if len(txs) != 0 {
			t.Fatalf("expected no transfer rows, got %+v", txs)
		}
		return nil
	})
}

func TestEngineTransfer_ConcurrentFullBalanceAtMostOneWins(t *testing.T) {
	f := newFixture(t, 5_000)
	ctx := context.Background()

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Transfer(ctx, Input{UserID: 1, FromAccountID: f.a.ID, ToAccountID: f.b.ID, Amount: "50.00"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ledger.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one transfer to succeed, got %d", wins)
	}
	got := f.balances(t, f.a.ID, f.b.ID)
	if got[0] != 0 || got[1] != 5_000 {
		t.Fatalf("unexpected balances %s/%s", got[0], got[1])
	}
}
