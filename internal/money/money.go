// Package money models monetary amounts as fixed-point minor units.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits carried by every Amount.
const Scale = 2

// maxIntegerDigits keeps parsed amounts far away from int64 overflow when balances are summed.
const maxIntegerDigits = 13

var (
	// ErrInvalidAmount is returned for malformed, non-positive or oversized amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrUnsupportedCurrency is returned for ISO codes the ledger does not hold.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Amount is a signed count of minor units (cents). Positive amounts credit an
// account, negative amounts debit it.
type Amount int64

// Parse validates a user supplied amount such as "40" or "40.25". The amount
// must be strictly positive and carry at most two fraction digits.
func Parse(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: use a positive number with up to 2 decimal places", ErrInvalidAmount)
	}
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
	}
	if len(strings.TrimLeft(intPart, "0")) > maxIntegerDigits {
		return 0, fmt.Errorf("%w: amount too large", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	a := Amount(d.Shift(Scale).IntPart())
	if a <= 0 {
		return 0, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidAmount)
	}
	return a, nil
}

// FromDecimal converts a decimal holding at most two fraction digits. Unlike
// Parse it accepts zero and negative values.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), Scale)
	}
	shifted := d.Shift(Scale)
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: amount too large", ErrInvalidAmount)
	}
	return Amount(shifted.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// Neg returns the opposite posting amount.
func (a Amount) Neg() Amount {
	return -a
}

// String renders the amount with exactly two fraction digits, e.g. "-40.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// MarshalJSON encodes the amount as a JSON number with two fraction digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Currency is an ISO 4217 code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Supported lists the currencies every user holds an account in.
func Supported() []Currency {
	return []Currency{USD, EUR}
}

// ParseCurrency normalizes and validates an ISO code.
func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range Supported() {
		if c == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, raw)
}
