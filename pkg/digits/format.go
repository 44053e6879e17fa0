// format.go renders integers and values as digit strings using the
// standard 36-symbol alphabet.
package digits

import (
	"math/big"
	"strings"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// FormatInt renders a big integer in the given base using the 0-9a-z
// alphabet, with a leading '-' for negative integers and "0" for zero.
func FormatInt(n *big.Int, base int) (string, error) {
	if base < constants.MinBase || base > constants.MaxBase {
		return "", dlerrors.ErrInvalidBase
	}
	if base == 10 {
		return n.String(), nil
	}
	if n.Sign() == 0 {
		return "0", nil
	}

	m := new(big.Int).Abs(n)
	b := big.NewInt(int64(base))
	rem := new(big.Int)
	out := make([]byte, 0, 16)
	for m.Sign() > 0 {
		m.QuoRem(m, b, rem)
		out = append(out, constants.DigitAlphabet[rem.Int64()])
	}
	if n.Sign() < 0 {
		out = append(out, '-')
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

// Render formats a value as "<integer part>.<fractional digits>" with
// exactly digitCount fractional symbols in the given base. With a digit
// count of zero only the integer part is returned.
func Render(v Value, digitCount, base int) (string, error) {
	head, err := FormatInt(v.IntegerPart(), base)
	if err != nil {
		return "", err
	}
	if digitCount == 0 {
		return head, nil
	}
	stream, err := NewFracStream(v, digitCount, base)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(head) + 1 + digitCount)
	b.WriteString(head)
	b.WriteByte('.')
	for {
		d, ok := stream.Next()
		if !ok {
			break
		}
		b.WriteByte(constants.DigitAlphabet[d])
	}
	return b.String(), nil
}

// DisplayPrefix builds the textual prefix written before streamed
// fractional digits: optional label, optional base marker, integer part
// and the radix point.
func DisplayPrefix(labelPrefix, basePrefix string, intPart *big.Int, base int) (string, error) {
	head, err := FormatInt(intPart, base)
	if err != nil {
		return "", err
	}
	return labelPrefix + basePrefix + head + ".", nil
}
