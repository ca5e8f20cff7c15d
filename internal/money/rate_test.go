package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func usdEUR(t *testing.T) Rate {
	t.Helper()
	r, err := NewRate(USD, EUR, decimal.RequireFromString("0.92"))
	if err != nil {
		t.Fatalf("new rate: %v", err)
	}
	return r
}

func TestRate_ConvertUSDToEUR(t *testing.T) {
	r := usdEUR(t)
	got, err := r.Convert(2_000, USD, EUR)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != 1_840 {
		t.Fatalf("expected 18.40 EUR, got %s", got)
	}
}

func TestRate_ReverseUsesReciprocal(t *testing.T) {
	r := usdEUR(t)

	got, err := r.Convert(1_840, EUR, USD)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != 2_000 {
		t.Fatalf("expected 20.00 USD, got %s", got)
	}

	// 10.00 / 0.92 = 10.869565... -> 10.87
	got, err = r.Convert(1_000, EUR, USD)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != 1_087 {
		t.Fatalf("expected 10.87 USD, got %s", got)
	}
}

func TestRate_RoundsHalfUpOnce(t *testing.T) {
	r, err := NewRate(USD, EUR, decimal.RequireFromString("0.5"))
	if err != nil {
		t.Fatalf("new rate: %v", err)
	}
	// 0.05 * 0.5 = 0.025 -> 0.03
	got, err := r.Convert(5, USD, EUR)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 0.03, got %s", got)
	}
	// 0.03 * 0.5 = 0.015 -> 0.02
	got, _ = r.Convert(3, USD, EUR)
	if got != 2 {
		t.Fatalf("expected 0.02, got %s", got)
	}
}

func TestRate_RejectsForeignPair(t *testing.T) {
	r := usdEUR(t)
	if _, err := r.Convert(100, USD, USD); !errors.Is(err, ErrUnsupportedPair) {
		t.Fatalf("expected ErrUnsupportedPair, got %v", err)
	}
	if !r.Covers(EUR, USD) || r.Covers(USD, USD) {
		t.Fatalf("unexpected Covers result")
	}
	if _, err := NewRate(USD, EUR, decimal.Zero); err == nil {
		t.Fatalf("expected zero rate to be rejected")
	}
}
