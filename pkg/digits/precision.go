// Package digits provides precision planning, arbitrary-precision values,
// fractional digit streaming and digit rendering in bases 2 through 36.
//
// All arithmetic carries an explicit precision. Nothing in this package
// reads or writes process-wide precision state, so concurrent generation
// requests at different precisions cannot interfere.
package digits

import (
	"math"
	"math/big"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// Plan converts a requested digit count and output base into a safe
// working precision in decimal digits:
//
//	working = ceil(digitCount * log10(base)) + guard
//
// Guard is the decimal-digit slack; use constants.DefaultGuardDigits for
// ordinary generation and constants.VerifyGuardDigits when the result will
// be cross-checked by the verification oracle.
func Plan(digitCount, base, guard int) (int, error) {
	if digitCount < 0 {
		return 0, dlerrors.ErrNegativeDigits
	}
	if base < constants.MinBase || base > constants.MaxBase {
		return 0, dlerrors.ErrInvalidBase
	}
	if guard < 0 {
		guard = constants.DefaultGuardDigits
	}
	return int(math.Ceil(float64(digitCount)*math.Log10(float64(base)))) + guard, nil
}

// Bits converts a decimal-digit precision into big.Float binary precision,
// with fixed slack on top.
func Bits(decimalDigits int) uint {
	if decimalDigits < 1 {
		decimalDigits = 1
	}
	return uint(math.Ceil(float64(decimalDigits)*math.Log2(10))) + constants.FloatSlackBits
}

// Value is an arbitrary-precision real number together with the decimal
// precision it was computed at. Values are immutable after creation and
// discarded once digit extraction completes.
type Value struct {
	x       *big.Float
	decimal int
}

// NewValue wraps a big.Float computed at the given decimal precision.
// The float is copied; the caller keeps ownership of x.
func NewValue(x *big.Float, decimalDigits int) Value {
	c := new(big.Float).SetPrec(x.Prec())
	c.Set(x)
	return Value{x: c, decimal: decimalDigits}
}

// Float returns a copy of the underlying value at full precision.
func (v Value) Float() *big.Float {
	c := new(big.Float).SetPrec(v.x.Prec())
	c.Set(v.x)
	return c
}

// Precision returns the decimal precision the value was computed at.
func (v Value) Precision() int {
	return v.decimal
}

// IntegerPart returns floor of the value as a big integer.
func (v Value) IntegerPart() *big.Int {
	return floorInt(v.x)
}

// floorInt returns floor(x) as a big.Int. big.Float.Int truncates toward
// zero, so negative non-integers need one more step down.
func floorInt(x *big.Float) *big.Int {
	z, acc := x.Int(nil)
	if x.Sign() < 0 && acc != big.Exact {
		z.Sub(z, big.NewInt(1))
	}
	return z
}
