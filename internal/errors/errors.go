// Package errors defines the error taxonomy for DigitLoom. Every failure
// class a caller may want to branch on has a sentinel here; packages wrap
// them with context rather than inventing ad-hoc error strings.
package errors

import (
	"errors"
	"fmt"
)

// Invalid-argument sentinels.
var (
	// ErrNegativeDigits indicates a negative digit count was requested.
	ErrNegativeDigits = errors.New("digits: digit count must be >= 0")

	// ErrInvalidBase indicates an output base outside [2, 36].
	ErrInvalidBase = errors.New("digits: base must be in [2, 36]")

	// ErrNegativePosition indicates a negative digit position.
	ErrNegativePosition = errors.New("bbp: position must be >= 0")

	// ErrInvalidWorkers indicates a worker count below 1.
	ErrInvalidWorkers = errors.New("chudnovsky: workers must be >= 1")

	// ErrUnsupportedCompression indicates a compression selector outside
	// {none, gzip}.
	ErrUnsupportedCompression = errors.New("container: unsupported compression")

	// ErrUnsupportedEncryption indicates an encryption selector outside
	// {none, aes-256-gcm, chacha20-poly1305}.
	ErrUnsupportedEncryption = errors.New("container: unsupported encryption")

	// ErrUnsupportedAlgorithm indicates an unknown AEAD algorithm name or id.
	ErrUnsupportedAlgorithm = errors.New("crypto: unsupported algorithm")

	// ErrPasswordRequired indicates encryption or decryption was requested
	// without a password.
	ErrPasswordRequired = errors.New("crypto: password is required")

	// ErrInvalidChunkSize indicates a chunk size below 1.
	ErrInvalidChunkSize = errors.New("digits: chunk size must be >= 1")
)

// Format sentinels: the artifact bytes do not parse.
var (
	// ErrBadMagic indicates the artifact does not start with the expected
	// magic bytes.
	ErrBadMagic = errors.New("format: invalid magic")

	// ErrTruncated indicates the artifact ends in the middle of a header,
	// chunk prologue, nonce or payload.
	ErrTruncated = errors.New("format: truncated data")

	// ErrHeaderHashMismatch indicates the recomputed header-integrity hash
	// disagrees with the embedded one.
	ErrHeaderHashMismatch = errors.New("format: header hash mismatch")

	// ErrHeaderInvalid indicates an unparsable or oversized header.
	ErrHeaderInvalid = errors.New("format: invalid header")
)

// Integrity sentinels: the artifact parses but the content is wrong.
var (
	// ErrChunkHashMismatch indicates a chunk's plaintext hash disagrees
	// with the recorded content hash.
	ErrChunkHashMismatch = errors.New("integrity: chunk hash mismatch")

	// ErrChunkLengthMismatch indicates the decompressed/decrypted chunk
	// length disagrees with the recorded raw length.
	ErrChunkLengthMismatch = errors.New("integrity: chunk length mismatch")
)

// ErrAuthenticationFailed is the single error surfaced for every AEAD
// decryption failure. Wrong password and tampered ciphertext are
// deliberately indistinguishable.
var ErrAuthenticationFailed = errors.New("crypto: authentication failed")

// ErrVerificationMismatch indicates generated digits disagree with the
// independently recomputed reference.
var ErrVerificationMismatch = errors.New("verify: digits disagree with reference")

// ErrUnsupportedCombination indicates a valid option set that the selected
// engine or output path cannot satisfy (for example Chudnovsky for a
// non-decimal base, or a streamed format that cannot carry encryption).
var ErrUnsupportedCombination = errors.New("pipeline: unsupported option combination")

// Expression evaluator sentinels.
var (
	// ErrUnknownConstant indicates a constant name outside the catalog.
	ErrUnknownConstant = errors.New("eval: unknown constant")

	// ErrBadExpression indicates a syntax error in a custom expression.
	ErrBadExpression = errors.New("eval: invalid expression")

	// ErrMathDomain indicates an evaluation outside a function's domain,
	// such as ln of a non-positive value.
	ErrMathDomain = errors.New("eval: argument outside function domain")
)

// CodecError wraps a codec failure with the operation that produced it.
type CodecError struct {
	Op  string // operation, e.g. "container.write", "envelope.decrypt"
	Err error  // underlying sentinel or I/O error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// NewCodecError creates a CodecError.
func NewCodecError(op string, err error) *CodecError {
	return &CodecError{Op: op, Err: err}
}

// EvalError wraps an expression evaluation failure with the offending
// input fragment.
type EvalError struct {
	Input string // expression fragment or token
	Err   error  // underlying sentinel
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Input)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// NewEvalError creates an EvalError.
func NewEvalError(input string, err error) *EvalError {
	return &EvalError{Input: input, Err: err}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
