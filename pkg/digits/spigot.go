// spigot.go implements an unbounded spigot generator for the decimal
// digits of pi. The algorithm keeps six big-integer state variables and
// emits exact digits one at a time with no precision budget to plan ahead;
// it is also the independent reference the verification oracle uses for
// base-10 pi.
package digits

import (
	"math/big"
	"strings"

	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// Spigot generates the decimal digits of pi, integer digit first.
// It never terminates on its own; the consumer stops polling Next.
type Spigot struct {
	q, r, t, k, n, l *big.Int
}

// NewSpigot returns a generator positioned before pi's first digit.
func NewSpigot() *Spigot {
	return &Spigot{
		q: big.NewInt(1),
		r: big.NewInt(0),
		t: big.NewInt(1),
		k: big.NewInt(1),
		n: big.NewInt(3),
		l: big.NewInt(3),
	}
}

// Next returns the next decimal digit of pi. The first call yields 3,
// subsequent calls yield the fractional digits in order. Digits are exact;
// only integer arithmetic is involved.
func (s *Spigot) Next() int {
	for {
		// Emit when 4q + r - t < n*t.
		lhs := new(big.Int).Lsh(s.q, 2)
		lhs.Add(lhs, s.r)
		lhs.Sub(lhs, s.t)
		rhs := new(big.Int).Mul(s.n, s.t)

		if lhs.Cmp(rhs) < 0 {
			digit := int(s.n.Int64())

			// (q, r, n) <- (10q, 10(r - n*t), floor(10(3q+r)/t) - 10n)
			nt := new(big.Int).Mul(s.n, s.t)
			newR := new(big.Int).Sub(s.r, nt)
			newR.Mul(newR, ten)

			newN := new(big.Int).Mul(three, s.q)
			newN.Add(newN, s.r)
			newN.Mul(newN, ten)
			newN.Quo(newN, s.t)
			newN.Sub(newN, new(big.Int).Mul(ten, s.n))

			s.q.Mul(s.q, ten)
			s.r = newR
			s.n = newN
			return digit
		}

		// (q, r, t, k, n, l) <- (qk, (2q+r)l, tl, k+1, floor((q(7k+2)+rl)/(tl)), l+2)
		newR := new(big.Int).Lsh(s.q, 1)
		newR.Add(newR, s.r)
		newR.Mul(newR, s.l)

		newT := new(big.Int).Mul(s.t, s.l)

		newN := new(big.Int).Mul(seven, s.k)
		newN.Add(newN, two)
		newN.Mul(newN, s.q)
		newN.Add(newN, new(big.Int).Mul(s.r, s.l))
		newN.Quo(newN, newT)

		s.q.Mul(s.q, s.k)
		s.r = newR
		s.t = newT
		s.k.Add(s.k, one)
		s.n = newN
		s.l.Add(s.l, two)
	}
}

var (
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
	seven = big.NewInt(7)
	ten   = big.NewInt(10)
)

// FormatSpigotPi returns pi formatted as "3." followed by prefixDigits-1
// fractional digits, all produced by the spigot generator.
func FormatSpigotPi(prefixDigits int) (string, error) {
	if prefixDigits < 1 {
		return "", dlerrors.ErrNegativeDigits
	}
	g := NewSpigot()
	var b strings.Builder
	b.Grow(prefixDigits + 1)
	b.WriteByte(byte('0' + g.Next()))
	b.WriteByte('.')
	for i := 1; i < prefixDigits; i++ {
		b.WriteByte(byte('0' + g.Next()))
	}
	return b.String(), nil
}

// SpigotFractionalPrefix returns the first count fractional decimal digits
// of pi as text, skipping the leading 3.
func SpigotFractionalPrefix(count int) string {
	if count <= 0 {
		return ""
	}
	g := NewSpigot()
	g.Next() // integer digit
	buf := make([]byte, count)
	for i := range buf {
		buf[i] = byte('0' + g.Next())
	}
	return string(buf)
}
