package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse_AcceptsClientFormats(t *testing.T) {
	cases := map[string]Amount{
		"40":     4_000,
		"40.5":   4_050,
		"40.25":  4_025,
		"0.01":   1,
		" 7.00 ": 700,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %d got %d", in, want, got)
		}
	}
}

func TestParse_RejectsInvalidAmounts(t *testing.T) {
	for _, in := range []string{"", "0", "0.00", "-1", "1.234", "abc", "1e3", ".5", "12345678901234"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("parse %q: expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestAmount_JSONUsesTwoDecimals(t *testing.T) {
	payload, err := json.Marshal(map[string]Amount{"balance": 6_000, "debit": -4_000})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"balance":60.00,"debit":-40.00}` {
		t.Fatalf("unexpected json %s", payload)
	}

	var decoded struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12.5","b":3.07}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.A != 1_250 || decoded.B != 307 {
		t.Fatalf("unexpected decoded amounts %+v", decoded)
	}
}

func TestFromDecimal_RejectsSubCentPrecision(t *testing.T) {
	if _, err := FromDecimal(decimal.RequireFromString("1.005")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	a, err := FromDecimal(decimal.Zero)
	if err != nil || a != 0 {
		t.Fatalf("expected zero amount, got %d (%v)", a, err)
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("eur")
	if err != nil || c != EUR {
		t.Fatalf("expected EUR, got %q (%v)", c, err)
	}
	if _, err := ParseCurrency("GBP"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}
