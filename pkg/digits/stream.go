// stream.go implements the fractional digit stream: a lazy sequence of
// digit symbols extracted from a high-precision value by repeated
// multiply-by-base, floor, subtract.
//
// Streams are explicit state structs polled with Next, never goroutines:
// the consumer stops polling to cancel, and restarts by constructing a new
// stream from the original value (the remainder is consumed in place).
package digits

import (
	"math/big"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// FracStream produces the fractional-part digits of a value in a fixed
// base. It is finite (bounded by the requested digit count), stateful and
// one-pass.
type FracStream struct {
	rem       *big.Float
	baseFloat *big.Float
	base      int
	remaining int
}

// NewFracStream creates a digit stream over the fractional part of v,
// emitting at most digitCount symbols in [0, base).
func NewFracStream(v Value, digitCount, base int) (*FracStream, error) {
	if digitCount < 0 {
		return nil, dlerrors.ErrNegativeDigits
	}
	if base < constants.MinBase || base > constants.MaxBase {
		return nil, dlerrors.ErrInvalidBase
	}
	x := v.Float()
	fl := floorInt(x)
	rem := x.Sub(x, new(big.Float).SetPrec(x.Prec()).SetInt(fl))
	return &FracStream{
		rem:       rem,
		baseFloat: new(big.Float).SetPrec(x.Prec()).SetInt64(int64(base)),
		base:      base,
		remaining: digitCount,
	}, nil
}

// Next returns the next digit symbol, or false when the stream is
// exhausted. Each call consumes the current remainder.
func (s *FracStream) Next() (int, bool) {
	if s.remaining <= 0 {
		return 0, false
	}
	s.remaining--
	s.rem.Mul(s.rem, s.baseFloat)
	d := floorInt(s.rem)
	s.rem.Sub(s.rem, new(big.Float).SetPrec(s.rem.Prec()).SetInt(d))
	return int(d.Int64()), true
}

// Base returns the stream's digit base.
func (s *FracStream) Base() int {
	return s.base
}

// Remaining returns how many digits the stream will still emit.
func (s *FracStream) Remaining() int {
	return s.remaining
}

// ChunkStream groups the symbols of a FracStream into fixed-size textual
// chunks for streaming consumers. The final chunk may be shorter.
type ChunkStream struct {
	stream    *FracStream
	chunkSize int
}

// NewChunkStream creates a chunked view over the fractional digits of v.
func NewChunkStream(v Value, digitCount, base, chunkSize int) (*ChunkStream, error) {
	if chunkSize < 1 {
		return nil, dlerrors.ErrInvalidChunkSize
	}
	stream, err := NewFracStream(v, digitCount, base)
	if err != nil {
		return nil, err
	}
	return &ChunkStream{stream: stream, chunkSize: chunkSize}, nil
}

// Next returns the next chunk of digit symbols as ASCII text, or false
// when the underlying stream is exhausted.
func (c *ChunkStream) Next() ([]byte, bool) {
	if c.stream.Remaining() <= 0 {
		return nil, false
	}
	buf := make([]byte, 0, c.chunkSize)
	for len(buf) < c.chunkSize {
		d, ok := c.stream.Next()
		if !ok {
			break
		}
		buf = append(buf, constants.DigitAlphabet[d])
	}
	if len(buf) == 0 {
		return nil, false
	}
	return buf, true
}

// CollectPrefix drains up to count bytes from consecutive chunks.
// Used by the verification oracle to materialize a reference prefix.
func (c *ChunkStream) CollectPrefix(count int) []byte {
	out := make([]byte, 0, count)
	for len(out) < count {
		chunk, ok := c.Next()
		if !ok {
			break
		}
		need := count - len(out)
		if len(chunk) > need {
			chunk = chunk[:need]
		}
		out = append(out, chunk...)
	}
	return out
}
