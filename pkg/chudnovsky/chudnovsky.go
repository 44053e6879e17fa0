// Package chudnovsky computes pi to a requested number of decimal digits
// using the Chudnovsky series evaluated by binary splitting.
//
// Each term k contributes an integer triple (p, q, t); a range [a, b) is
// evaluated by recursively halving and combining sub-results with
//
//	p = pL*pR    q = qL*qR    t = tL*qR + pL*tR
//
// The combine is associative but not commutative: left and right must keep
// the original range order. Parallel evaluation therefore partitions
// [0, terms) into contiguous sub-ranges, computes them independently, and
// folds the partial results strictly left to right — never an unordered
// reduction.
package chudnovsky

import (
	"math/big"
	"strings"
	"sync"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/digits"
)

// triple is one binary-splitting partial result over a term range.
type triple struct {
	p, q, t *big.Int
}

// term evaluates the base case for the single term k:
//
//	p_k = (6k-5)(2k-1)(6k-1)
//	q_k = k^3 * C^3/24
//	t_k = +-p_k * (A + B*k), negative for odd k
//
// with (1, 1, A) for k = 0.
func term(k int64) triple {
	if k == 0 {
		return triple{
			p: big.NewInt(1),
			q: big.NewInt(1),
			t: big.NewInt(constants.ChudnovskyA),
		}
	}
	p := big.NewInt(6*k - 5)
	p.Mul(p, big.NewInt(2*k-1))
	p.Mul(p, big.NewInt(6*k-1))

	q := big.NewInt(k)
	q.Mul(q, big.NewInt(k))
	q.Mul(q, big.NewInt(k))
	q.Mul(q, big.NewInt(constants.ChudnovskyC3Over24))

	t := new(big.Int).Mul(big.NewInt(constants.ChudnovskyA+constants.ChudnovskyB*k), p)
	if k&1 == 1 {
		t.Neg(t)
	}
	return triple{p: p, q: q, t: t}
}

// split evaluates the term range [a, b) by recursive halving.
func split(a, b int64) triple {
	if b-a == 1 {
		return term(a)
	}
	m := (a + b) / 2
	left := split(a, m)
	right := split(m, b)
	return combine(left, right)
}

// combine merges two adjacent partial results. The receiver order must
// match the range order.
func combine(left, right triple) triple {
	p := new(big.Int).Mul(left.p, right.p)
	q := new(big.Int).Mul(left.q, right.q)
	t := new(big.Int).Mul(left.t, right.q)
	t.Add(t, new(big.Int).Mul(left.p, right.t))
	return triple{p: p, q: q, t: t}
}

// termCount returns the number of series terms needed for the requested
// digit count.
func termCount(digitsAfterPoint int) int64 {
	return int64(float64(digitsAfterPoint)/constants.ChudnovskyDigitsPerTerm) + 2
}

// evaluate computes the series partial result for [0, terms), partitioned
// across workers when the range is large enough to pay for it.
func evaluate(terms int64, workers int) triple {
	if workers == 1 || terms < constants.ChudnovskyParallelThreshold {
		return split(0, terms)
	}

	chunkCount := int64(workers)
	if terms < chunkCount {
		chunkCount = terms
	}

	// Contiguous near-equal sub-ranges. Workers share nothing mutable:
	// each computes a pure function of its own bounds.
	bounds := make([]int64, chunkCount+1)
	for i := int64(1); i <= chunkCount; i++ {
		bounds[i] = terms * i / chunkCount
	}

	parts := make([]triple, chunkCount)
	var wg sync.WaitGroup
	for i := int64(0); i < chunkCount; i++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			parts[i] = split(bounds[i], bounds[i+1])
		}(i)
	}
	wg.Wait()

	// Ordered left-to-right fold; the combine is not commutative.
	acc := triple{p: big.NewInt(1), q: big.NewInt(1), t: big.NewInt(0)}
	for _, part := range parts {
		acc = combine(acc, part)
	}
	return acc
}

// Float computes pi as a big.Float accurate to digitsAfterPoint decimal
// digits (plus guard slack), using the given number of parallel workers.
func Float(digitsAfterPoint, workers int) (*big.Float, error) {
	if digitsAfterPoint < 0 {
		return nil, dlerrors.ErrNegativeDigits
	}
	if workers < 1 {
		return nil, dlerrors.ErrInvalidWorkers
	}

	bs := evaluate(termCount(digitsAfterPoint), workers)

	// pi = 426880 * sqrt(10005) * q / t at digitsAfterPoint+20 decimals.
	prec := digits.Bits(digitsAfterPoint + constants.ChudnovskyExtraDigits)
	sqrt := new(big.Float).SetPrec(prec).SetInt64(10005)
	sqrt.Sqrt(sqrt)

	pi := new(big.Float).SetPrec(prec).SetInt64(426880)
	pi.Mul(pi, sqrt)
	pi.Mul(pi, new(big.Float).SetPrec(prec).SetInt(bs.q))
	pi.Quo(pi, new(big.Float).SetPrec(prec).SetInt(bs.t))
	return pi, nil
}

// Pi computes pi formatted as "3." followed by exactly digitsAfterPoint
// decimal digits. The fractional part is truncated, never rounded up past
// the requested count, and padded with zeros if needed. The result is
// identical for any worker count.
func Pi(digitsAfterPoint, workers int) (string, error) {
	pi, err := Float(digitsAfterPoint, workers)
	if err != nil {
		return "", err
	}

	value := digits.NewValue(pi, digitsAfterPoint+constants.ChudnovskyExtraDigits)
	if digitsAfterPoint == 0 {
		return value.IntegerPart().String(), nil
	}

	stream, err := digits.NewFracStream(value, digitsAfterPoint, 10)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(digitsAfterPoint + 2)
	b.WriteString(value.IntegerPart().String())
	b.WriteByte('.')
	for {
		d, ok := stream.Next()
		if !ok {
			break
		}
		b.WriteByte(byte('0' + d))
	}
	return b.String(), nil
}
