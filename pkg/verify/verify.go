// Package verify implements the verification oracle: it recomputes a short
// digit prefix of the requested constant with an algorithm independent from
// the one used for generation and compares digit-for-digit.
//
// Independence is the point. Generated base-10 π comes from the
// binary-splitting engine, so the oracle checks it against the spigot
// generator; base-16 π is checked against the BBP extractor; everything
// else is recomputed through the evaluation path at an independently
// planned precision with a larger guard.
package verify

import (
	"strings"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/bbp"
	"github.com/digitloom/digitloom/pkg/digits"
	"github.com/digitloom/digitloom/pkg/eval"
)

// Method tags identifying which independent algorithm produced the
// reference prefix.
const (
	MethodSkipped   = "skipped"
	MethodSpigot    = "pi spigot"
	MethodBBP       = "pi bbp"
	MethodRecompute = "independent recompute"
)

// Result is the outcome of one verification: whether the candidate prefix
// matched and which method produced the reference.
type Result struct {
	Passed bool
	Method string
}

// Err returns ErrVerificationMismatch when the verification failed, for
// callers that propagate failures as errors rather than inspecting Passed.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	return dlerrors.ErrVerificationMismatch
}

// Verify compares candidate (fractional digits only, no radix point)
// against an independently recomputed reference.
//
// The comparison covers min(samples, len(candidate), len(reference))
// digits, case-insensitively for bases above 10. A zero-length overlap
// passes trivially; callers should treat that as inconclusive rather than
// as a positive result. A mismatch is reported in the Result, not as an
// error; errors are reserved for being unable to compute a reference.
func Verify(constant, expression string, base, samples int, candidate string) (Result, error) {
	if samples <= 0 {
		return Result{Passed: true, Method: MethodSkipped}, nil
	}

	name := strings.ToLower(strings.TrimSpace(constant))

	switch {
	case name == "pi" && base == 10:
		reference := digits.SpigotFractionalPrefix(samples)
		return compare(candidate, reference, samples, MethodSpigot), nil

	case name == "pi" && base == 16:
		reference, err := bbp.PiHexDigits(0, samples)
		if err != nil {
			return Result{}, err
		}
		return compare(candidate, reference, samples, MethodBBP), nil

	default:
		reference, err := recompute(name, expression, base, samples)
		if err != nil {
			return Result{}, err
		}
		return compare(candidate, reference, samples, MethodRecompute), nil
	}
}

// recompute materializes the constant or expression through the evaluation
// path at a fresh precision plan with the verification guard, then
// extracts the requested digit prefix.
func recompute(name, expression string, base, samples int) (string, error) {
	decimalDigits, err := digits.Plan(samples, base, constants.VerifyGuardDigits)
	if err != nil {
		return "", err
	}

	var value digits.Value
	if name != "" {
		value, err = eval.Constant(name, decimalDigits)
	} else {
		value, err = eval.Evaluate(expression, decimalDigits)
	}
	if err != nil {
		return "", err
	}

	stream, err := digits.NewChunkStream(value, samples, base, samples)
	if err != nil {
		return "", err
	}
	return string(stream.CollectPrefix(samples)), nil
}

func compare(candidate, reference string, samples int, method string) Result {
	n := samples
	if len(candidate) < n {
		n = len(candidate)
	}
	if len(reference) < n {
		n = len(reference)
	}
	passed := strings.EqualFold(candidate[:n], reference[:n])
	return Result{Passed: passed, Method: method}
}
