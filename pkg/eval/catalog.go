// catalog.go defines the fixed catalog of named constants the evaluator
// and the pipeline can materialize at arbitrary precision.
package eval

import (
	"math/big"
	"sort"
	"strings"

	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/chudnovsky"
	"github.com/digitloom/digitloom/pkg/digits"
)

// constantFunc materializes one catalog constant at the given binary
// precision, derived from the requested decimal precision.
type constantFunc func(decimalDigits int, prec uint) (*big.Float, error)

// catalog is the closed set of supported named constants. Adding an entry
// is the only way to expose a new constant; there is no dynamic path.
var catalog = map[string]constantFunc{
	"pi":    constPi,
	"tau":   constTau,
	"e":     constE,
	"sqrt2": constSqrt2,
	"phi":   constPhi,
	"ln2":   constLn2,
	"zeta2": constZeta2,
}

// Names returns the catalog constant names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnownConstant reports whether name is in the catalog.
func IsKnownConstant(name string) bool {
	_, ok := catalog[normalizeName(name)]
	return ok
}

// Constant materializes a catalog constant at the given decimal precision.
func Constant(name string, decimalDigits int) (digits.Value, error) {
	if decimalDigits < 0 {
		return digits.Value{}, dlerrors.ErrNegativeDigits
	}
	fn, ok := catalog[normalizeName(name)]
	if !ok {
		return digits.Value{}, dlerrors.NewEvalError(name, dlerrors.ErrUnknownConstant)
	}
	x, err := fn(decimalDigits, digits.Bits(decimalDigits))
	if err != nil {
		return digits.Value{}, err
	}
	return digits.NewValue(x, decimalDigits), nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func constPi(decimalDigits int, _ uint) (*big.Float, error) {
	return chudnovsky.Float(decimalDigits, 1)
}

func constTau(decimalDigits int, prec uint) (*big.Float, error) {
	pi, err := constPi(decimalDigits, prec)
	if err != nil {
		return nil, err
	}
	pi.SetMantExp(pi, 1) // *2
	return pi, nil
}

// constE sums the Taylor series e = sum 1/k! to the precision cutoff.
func constE(_ int, prec uint) (*big.Float, error) {
	work := prec + 16
	sum := new(big.Float).SetPrec(work).SetInt64(1)
	term := new(big.Float).SetPrec(work).SetInt64(1)
	eps := epsilon(work)
	for k := int64(1); ; k++ {
		term.Quo(term, new(big.Float).SetPrec(work).SetInt64(k))
		sum.Add(sum, term)
		if term.Cmp(eps) < 0 {
			break
		}
	}
	return new(big.Float).SetPrec(prec).Set(sum), nil
}

func constSqrt2(_ int, prec uint) (*big.Float, error) {
	x := new(big.Float).SetPrec(prec).SetInt64(2)
	return x.Sqrt(x), nil
}

func constPhi(_ int, prec uint) (*big.Float, error) {
	work := prec + 16
	x := new(big.Float).SetPrec(work).SetInt64(5)
	x.Sqrt(x)
	x.Add(x, oneAt(work))
	x.SetMantExp(x, -1) // /2
	return new(big.Float).SetPrec(prec).Set(x), nil
}

func constLn2(_ int, prec uint) (*big.Float, error) {
	return Ln2(prec), nil
}

func constZeta2(decimalDigits int, prec uint) (*big.Float, error) {
	work := prec + 16
	pi, err := chudnovsky.Float(decimalDigits+8, 1)
	if err != nil {
		return nil, err
	}
	x := new(big.Float).SetPrec(work).Set(pi)
	x.Mul(x, x)
	x.Quo(x, new(big.Float).SetPrec(work).SetInt64(6))
	return new(big.Float).SetPrec(prec).Set(x), nil
}
