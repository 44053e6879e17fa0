// Package bbp computes isolated hexadecimal digits of pi using the
// Bailey-Borwein-Plouffe digit-extraction formula:
//
//	pi = sum_{k>=0} 16^-k (4/(8k+1) - 2/(8k+4) - 1/(8k+5) - 1/(8k+6))
//
// Multiplying by 16^n and dropping the integer part gives the digit at
// fractional position n without materializing the digits before it. The
// finite sum uses modular exponentiation so every term stays bounded; the
// infinite tail is summed only while terms exceed a precision-scaled
// epsilon. Positions are independent of one another, so multi-digit
// extraction is embarrassingly parallel, though this implementation
// computes positions sequentially.
package bbp

import (
	"math"
	"math/big"
	"strings"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// precisionBits returns the working binary precision for position n.
// It grows with log2(n) so the modular-sum and tail-truncation error stays
// below one hex digit.
func precisionBits(n int) uint {
	if n < 1 {
		return constants.BBPMinPrecisionBits
	}
	bits := int(math.Log2(float64(n)+1)) + constants.BBPMinPrecisionBits
	if bits < constants.BBPMinPrecisionBits {
		bits = constants.BBPMinPrecisionBits
	}
	return uint(bits)
}

// series computes S(j, n) mod 1 for one of the four BBP sub-series.
func series(j, n int, prec uint) *big.Float {
	sixteen := big.NewInt(16)
	s := new(big.Float).SetPrec(prec)

	// Finite sum: 16^(n-k) mod (8k+j) / (8k+j), reduced mod 1 each step.
	for k := 0; k <= n; k++ {
		r := int64(8*k + j)
		m := big.NewInt(r)
		pw := new(big.Int).Exp(sixteen, big.NewInt(int64(n-k)), m)
		term := new(big.Float).SetPrec(prec).SetInt(pw)
		term.Quo(term, new(big.Float).SetPrec(prec).SetInt64(r))
		s.Add(s, term)
		fracInPlace(s)
	}

	// Infinite tail: 16^(n-k)/(8k+j) for k > n, summed while terms exceed
	// the precision-scaled epsilon.
	eps := new(big.Float).SetPrec(prec).SetMantExp(
		big.NewFloat(1), -int(prec)+constants.BBPEpsilonSlackBits)
	pow16 := new(big.Float).SetPrec(prec).SetMantExp(big.NewFloat(1), -4) // 16^-1
	sixteenF := new(big.Float).SetPrec(prec).SetInt64(16)
	t := new(big.Float).SetPrec(prec)
	for k := n + 1; ; k++ {
		r := new(big.Float).SetPrec(prec).SetInt64(int64(8*k + j))
		term := new(big.Float).SetPrec(prec).Quo(pow16, r)
		if term.Cmp(eps) < 0 {
			break
		}
		t.Add(t, term)
		pow16.Quo(pow16, sixteenF)
	}

	s.Add(s, t)
	fracInPlace(s)
	return s
}

// fracInPlace reduces x to its fractional part in [0, 1).
func fracInPlace(x *big.Float) {
	z, acc := x.Int(nil)
	if x.Sign() < 0 && acc != big.Exact {
		z.Sub(z, big.NewInt(1))
	}
	x.Sub(x, new(big.Float).SetPrec(x.Prec()).SetInt(z))
}

// PiHexDigit computes the hexadecimal digit of pi at fractional position n
// (0-indexed, after the radix point) without computing preceding digits.
func PiHexDigit(n int) (int, error) {
	if n < 0 {
		return 0, dlerrors.ErrNegativePosition
	}
	prec := precisionBits(n)

	s1 := series(1, n, prec)
	s4 := series(4, n, prec)
	s5 := series(5, n, prec)
	s6 := series(6, n, prec)

	// x = (4*S1 - 2*S4 - S5 - S6) mod 1
	x := new(big.Float).SetPrec(prec)
	x.Mul(s1, new(big.Float).SetPrec(prec).SetInt64(4))
	x.Sub(x, new(big.Float).SetPrec(prec).Mul(s4, new(big.Float).SetPrec(prec).SetInt64(2)))
	x.Sub(x, s5)
	x.Sub(x, s6)
	fracInPlace(x)

	x.Mul(x, new(big.Float).SetPrec(prec).SetInt64(16))
	z, _ := x.Int(nil)
	return int(z.Int64()), nil
}

// PiHexDigits computes count consecutive hexadecimal digits of pi starting
// at fractional position start, returned as an uppercase hex string.
// Each position is computed independently.
func PiHexDigits(start, count int) (string, error) {
	if start < 0 {
		return "", dlerrors.ErrNegativePosition
	}
	if count < 0 {
		return "", dlerrors.ErrNegativeDigits
	}
	var b strings.Builder
	b.Grow(count)
	for i := 0; i < count; i++ {
		d, err := PiHexDigit(start + i)
		if err != nil {
			return "", err
		}
		b.WriteByte(constants.HexUpperAlphabet[d])
	}
	return b.String(), nil
}
