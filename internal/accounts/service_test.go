package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

func TestServiceOpenDefaultAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ledger.NewInMemory())

	if err := svc.OpenDefault(ctx, 5); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := svc.OpenDefault(ctx, 5); err != nil {
		t.Fatalf("open again: %v", err)
	}

	accts, err := svc.List(ctx, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accts))
	}
	if accts[0].Currency != money.USD || accts[1].Currency != money.EUR {
		t.Fatalf("unexpected currencies %s, %s", accts[0].Currency, accts[1].Currency)
	}
	if accts[0].Balance != 0 {
		t.Fatalf("expected empty account, got %s", accts[0].Balance)
	}
}

func TestServiceBalanceHidesForeignAccounts(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewInMemory()
	svc := NewService(store)
	_ = svc.OpenDefault(ctx, 1)
	_ = svc.OpenDefault(ctx, 2)

	mine, _ := svc.List(ctx, 1)
	if _, err := ledger.Deposit(ctx, store, 1, mine[0].ID, 2_500); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	bal, err := svc.Balance(ctx, 1, mine[0].ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Balance != 2_500 || bal.Currency != money.USD {
		t.Fatalf("unexpected balance %+v", bal)
	}

	if _, err := svc.Balance(ctx, 2, mine[0].ID); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestServiceOpenDefaultRejectsSystemUser(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	if err := svc.OpenDefault(context.Background(), ledger.SystemUserID); !errors.Is(err, ledger.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
