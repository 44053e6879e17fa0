// bigmath.go implements the elementary functions the expression evaluator
// needs at arbitrary precision: Exp and Ln over big.Float. Sqrt comes from
// math/big itself. All routines take an explicit binary precision; none
// touch shared state.
package eval

import (
	"math/big"

	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// epsilon returns the series cutoff 2^-prec.
func epsilon(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).SetMantExp(big.NewFloat(1), -int(prec))
}

// Exp computes e^x at the given binary precision.
//
// The argument is reduced by repeated halving until |r| < 1/4, the Taylor
// series of e^r is summed to the precision cutoff, and the result is
// squared back up. Internal precision carries extra bits to absorb the
// squaring error.
func Exp(x *big.Float, prec uint) *big.Float {
	// Halvings needed: |x| / 2^s < 1/4.
	s := 0
	if x.Sign() != 0 {
		s = x.MantExp(nil) + 2
		if s < 0 {
			s = 0
		}
	}

	work := prec + uint(s) + 32
	r := new(big.Float).SetPrec(work).Set(x)
	r.SetMantExp(r, -s)

	// Taylor: sum r^k / k!
	sum := new(big.Float).SetPrec(work).SetInt64(1)
	term := new(big.Float).SetPrec(work).SetInt64(1)
	eps := epsilon(work)
	absTerm := new(big.Float).SetPrec(work)
	for k := int64(1); ; k++ {
		term.Mul(term, r)
		term.Quo(term, new(big.Float).SetPrec(work).SetInt64(k))
		sum.Add(sum, term)
		if absTerm.Abs(term).Cmp(eps) < 0 {
			break
		}
	}

	for i := 0; i < s; i++ {
		sum.Mul(sum, sum)
	}
	return new(big.Float).SetPrec(prec).Set(sum)
}

// Ln computes the natural logarithm of x > 0 at the given binary
// precision. Returns dlerrors.ErrMathDomain for non-positive arguments.
//
// x is normalized to m * 2^e with m in [1, 2); then
//
//	ln(x) = 2*atanh((m-1)/(m+1)) + e*ln(2)
//
// The atanh argument lies in [0, 1/3], so the series gains more than
// three bits per term.
func Ln(x *big.Float, prec uint) (*big.Float, error) {
	if x.Sign() <= 0 {
		return nil, dlerrors.ErrMathDomain
	}

	work := prec + 32
	mant := new(big.Float).SetPrec(work)
	exp := x.MantExp(mant) // mant in [0.5, 1)

	// Shift into [1, 2).
	mant.SetMantExp(mant, 1)
	exp--

	num := new(big.Float).SetPrec(work).Sub(mant, oneAt(work))
	den := new(big.Float).SetPrec(work).Add(mant, oneAt(work))
	t := num.Quo(num, den)

	result := atanh(t, work)
	result.SetMantExp(result, 1) // *2

	if exp != 0 {
		scale := new(big.Float).SetPrec(work).SetInt64(int64(exp))
		result.Add(result, scale.Mul(scale, Ln2(work)))
	}
	return new(big.Float).SetPrec(prec).Set(result), nil
}

// Ln2 computes ln(2) = 2*atanh(1/3) at the given binary precision.
func Ln2(prec uint) *big.Float {
	work := prec + 16
	t := new(big.Float).SetPrec(work).SetInt64(1)
	t.Quo(t, new(big.Float).SetPrec(work).SetInt64(3))
	r := atanh(t, work)
	r.SetMantExp(r, 1)
	return new(big.Float).SetPrec(prec).Set(r)
}

// atanh sums the series t + t^3/3 + t^5/5 + ... for |t| < 1.
func atanh(t *big.Float, prec uint) *big.Float {
	tsq := new(big.Float).SetPrec(prec).Mul(t, t)
	pow := new(big.Float).SetPrec(prec).Set(t)
	sum := new(big.Float).SetPrec(prec).Set(t)
	eps := epsilon(prec)
	term := new(big.Float).SetPrec(prec)
	absTerm := new(big.Float).SetPrec(prec)
	for k := int64(1); ; k++ {
		pow.Mul(pow, tsq)
		term.Quo(pow, new(big.Float).SetPrec(prec).SetInt64(2*k+1))
		sum.Add(sum, term)
		if absTerm.Abs(term).Cmp(eps) < 0 {
			break
		}
	}
	return sum
}

func oneAt(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).SetInt64(1)
}
