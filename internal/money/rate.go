package money

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedPair is returned when a rate is asked to convert between
// currencies it does not quote.
var ErrUnsupportedPair = errors.New("unsupported currency pair")

// Rate quotes how many Quote units one Base unit buys. Conversions in the
// opposite direction use the exact reciprocal, so no precision is lost before
// the single final rounding step.
type Rate struct {
	Base  Currency
	Quote Currency
	Value decimal.Decimal
}

// NewRate validates a rate definition.
func NewRate(base, quote Currency, value decimal.Decimal) (Rate, error) {
	if base == quote {
		return Rate{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPair, base, quote)
	}
	if !value.IsPositive() {
		return Rate{}, fmt.Errorf("rate %s/%s must be positive, got %s", base, quote, value)
	}
	return Rate{Base: base, Quote: quote, Value: value}, nil
}

// Covers reports whether the rate converts from one currency to the other, in
// either direction.
func (r Rate) Covers(from, to Currency) bool {
	return (from == r.Base && to == r.Quote) || (from == r.Quote && to == r.Base)
}

// Convert turns an amount in from into an amount in to, rounding half-up to
// two decimal places exactly once.
func (r Rate) Convert(a Amount, from, to Currency) (Amount, error) {
	num, den := r.fraction()
	switch {
	case from == r.Base && to == r.Quote:
	case from == r.Quote && to == r.Base:
		num, den = den, num
	default:
		return 0, fmt.Errorf("%w: %s->%s", ErrUnsupportedPair, from, to)
	}

	p := new(big.Int).Mul(big.NewInt(int64(a)), num)
	out := roundHalfUp(p, den)
	if !out.IsInt64() {
		return 0, fmt.Errorf("%w: converted amount too large", ErrInvalidAmount)
	}
	return Amount(out.Int64()), nil
}

// String renders the rate as "1 USD = 0.92 EUR".
func (r Rate) String() string {
	return fmt.Sprintf("1 %s = %s %s", r.Base, r.Value.String(), r.Quote)
}

// fraction expresses the decimal rate as num/den with integer parts.
func (r Rate) fraction() (*big.Int, *big.Int) {
	coef := r.Value.Coefficient()
	exp := r.Value.Exponent()
	if exp >= 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
		return coef.Mul(coef, scale), big.NewInt(1)
	}
	return coef, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil)
}

// roundHalfUp divides p by q rounding halves away from zero.
func roundHalfUp(p, q *big.Int) *big.Int {
	neg := p.Sign() < 0
	abs := new(big.Int).Abs(p)
	twice := new(big.Int).Lsh(abs, 1)
	twice.Add(twice, q)
	out := twice.Quo(twice, new(big.Int).Lsh(q, 1))
	if neg {
		out.Neg(out)
	}
	return out
}
