package seed

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/bank_ledger/internal/accounts"
	"github.com/congo-pay/bank_ledger/internal/identity"
	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/logging"
	"github.com/congo-pay/bank_ledger/internal/money"
	"github.com/congo-pay/bank_ledger/internal/reconcile"
)

func TestApply_SeedsOnceAndReconciles(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewInMemory()
	ids := identity.NewServiceWithCost(identity.NewMemoryRepository(), bcrypt.MinCost)
	accts := accounts.NewService(store)

	for i := 0; i < 2; i++ {
		if err := Apply(ctx, DemoUsers(), ids, accts, store, logging.Discard()); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	alice, err := ids.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find alice: %v", err)
	}
	list, _ := accts.List(ctx, alice.ID)
	if len(list) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(list))
	}
	for _, a := range list {
		want := money.Amount(100_000)
		if a.Currency == money.EUR {
			want = 50_000
		}
		if a.Balance != want {
			t.Fatalf("%s balance %s, want %s", a.Currency, a.Balance, want)
		}
	}

	admin, _ := ids.FindByEmail(ctx, "admin@example.com")
	if admin.Role != identity.RoleAdmin {
		t.Fatalf("expected admin role, got %q", admin.Role)
	}

	report, err := reconcile.NewService(store, logging.Discard()).ForAll(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !report.AllMatch {
		t.Fatalf("seeded ledger does not reconcile: %+v", report)
	}
}
