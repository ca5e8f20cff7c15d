package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

func TestStatus_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{money.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrSameAccount, http.StatusBadRequest},
		{fmt.Errorf("%w: 9", ledger.ErrAccountNotFound), http.StatusNotFound},
		{ledger.ErrNotOwner, http.StatusForbidden},
		{ledger.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{ledger.ErrCurrencyMismatch, http.StatusUnprocessableEntity},
		{ledger.ErrNotExchangePair, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: deadlock", ledger.ErrConflict), http.StatusServiceUnavailable},
		{errors.New("db exploded"), http.StatusInternalServerError},
		{fiber.NewError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestFrom_HidesInternalErrors(t *testing.T) {
	fe, ok := From(errors.New("connection refused to 10.0.0.3")).(*fiber.Error)
	if !ok {
		t.Fatalf("expected *fiber.Error")
	}
	if fe.Code != http.StatusInternalServerError || fe.Message != "internal server error" {
		t.Fatalf("unexpected error %+v", fe)
	}
}

func TestFrom_StripsIdentifiersFromNotFound(t *testing.T) {
	fe := From(fmt.Errorf("%w: 42", ledger.ErrAccountNotFound)).(*fiber.Error)
	if fe.Message != "account not found" {
		t.Fatalf("unexpected message %q", fe.Message)
	}
}
