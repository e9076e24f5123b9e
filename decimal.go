package faktadb

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// DecimalScale is the number of fractional digits a Decimal is quantized
// to before it is encoded as a fixed-width key component (package codec).
// It bounds the precision the on-disk ordering can preserve; arithmetic
// within a single Decimal value may use more digits internally (apd is
// arbitrary-precision) but every value that round-trips through storage is
// quantized to this scale first.
const DecimalScale = 9

// decimalContext is shared by all Decimal arithmetic. 40 digits of
// precision comfortably covers a 128-bit quantized coefficient (which
// needs at most 39 decimal digits) plus headroom for intermediate sums.
var decimalContext = apd.BaseContext.WithPrecision(40)

// Decimal is a fixed-point decimal value, backed by apd.Decimal for
// arbitrary-precision arithmetic. Cmp compares the exact numeric values
// (so 1.5 and 1.50 are equal); the key codec encodes values quantized to
// DecimalScale, so two Decimals that differ only beyond that scale compare
// unequal under Cmp but encode to the same key component.
type Decimal struct {
	v apd.Decimal
}

// NewDecimal constructs a Decimal from an integer coefficient and a base-10
// exponent, i.e. coefficient * 10^exponent.
func NewDecimal(coefficient int64, exponent int32) Decimal {
	var d Decimal
	d.v.SetFinite(coefficient, exponent)
	return d
}

// DecimalFromInt64 constructs an exact integral Decimal.
func DecimalFromInt64(n int64) Decimal {
	return NewDecimal(n, 0)
}

// DecimalFromUint64 constructs an exact integral Decimal from an unsigned
// value.
func DecimalFromUint64(n uint64) Decimal {
	var d Decimal
	d.v.Coeff.SetUint64(n)
	return d
}

// DecimalFromString parses a base-10 decimal literal such as "12.50" or
// "-3".
func DecimalFromString(s string) (Decimal, error) {
	var d Decimal
	_, _, err := decimalContext.SetString(&d.v, s)
	if err != nil {
		return Decimal{}, fmt.Errorf("faktadb: invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// DecimalFromFloat64 constructs a Decimal from a float64 via its shortest
// round-tripping decimal representation.
func DecimalFromFloat64(f float64) (Decimal, error) {
	var d Decimal
	if _, err := d.v.SetFloat64(f); err != nil {
		return Decimal{}, fmt.Errorf("faktadb: invalid decimal %v: %w", f, err)
	}
	return d, nil
}

// String renders the Decimal in base-10.
func (d Decimal) String() string {
	return d.v.String()
}

// Cmp compares two Decimals: -1, 0, or 1.
func (d Decimal) Cmp(other Decimal) int {
	return d.v.Cmp(&other.v)
}

// IsZero reports whether the Decimal is exactly zero.
func (d Decimal) IsZero() bool {
	return d.v.IsZero()
}

// Add returns d + other, rounded to decimalContext's precision.
func (d Decimal) Add(other Decimal) Decimal {
	var sum Decimal
	_, _ = decimalContext.Add(&sum.v, &d.v, &other.v)
	return sum
}

// Quo returns d / other, rounded to decimalContext's precision. Used by
// the avg aggregate (package query).
func (d Decimal) Quo(other Decimal) (Decimal, error) {
	var q Decimal
	_, err := decimalContext.Quo(&q.v, &d.v, &other.v)
	if err != nil {
		return Decimal{}, fmt.Errorf("faktadb: decimal division: %w", err)
	}
	return q, nil
}

// quantized returns a copy of d rounded to exactly DecimalScale fractional
// digits, the form package codec encodes.
func (d Decimal) quantized() apd.Decimal {
	var q apd.Decimal
	_, _ = decimalContext.Quantize(&q, &d.v, -DecimalScale)
	return q
}

// ScaledCoefficient returns the integer coefficient of d once quantized to
// DecimalScale fractional digits, i.e. round(d * 10^DecimalScale). Package
// codec uses this to build the fixed-width, sign-biased 128-bit key
// component for a Decimal value.
func (d Decimal) ScaledCoefficient() *big.Int {
	q := d.quantized()
	coeff := new(big.Int).Set(q.Coeff.MathBigInt())
	if q.Negative {
		coeff.Neg(coeff)
	}
	return coeff
}

// DecimalFromScaledCoefficient is the inverse of ScaledCoefficient: it
// reconstructs a Decimal from an integer representing value *
// 10^DecimalScale.
func DecimalFromScaledCoefficient(scaled *big.Int) Decimal {
	var d Decimal
	neg := scaled.Sign() < 0
	abs := new(big.Int).Abs(scaled)
	d.v.Coeff.SetMathBigInt(abs)
	d.v.Negative = neg
	d.v.Exponent = -DecimalScale
	return d
}
