// stream.go implements unbounded streaming of pi's decimal digits via the
// spigot generator. Unlike Run, streaming has no precision plan: the spigot
// emits exact digits one at a time for as long as the caller keeps polling.
package pipeline

import (
	"context"
	"io"

	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/digits"
	"github.com/digitloom/digitloom/pkg/metrics"
)

// StreamPi streams pi's decimal digits with a pipeline built from the
// package-global logger and collector. See Pipeline.StreamPi.
func StreamPi(ctx context.Context, w io.Writer, digitCount, chunkSize int) (int64, error) {
	return New(nil, nil).StreamPi(ctx, w, digitCount, chunkSize)
}

// StreamPi writes "3." followed by pi's decimal digits to w, flushing every
// chunkSize digits. A digitCount of zero or less streams until ctx is
// canceled; cancellation is only observed between chunks, so the output
// always ends on a chunk boundary. Returns the number of fractional digits
// written.
func (p *Pipeline) StreamPi(ctx context.Context, w io.Writer, digitCount, chunkSize int) (int64, error) {
	if chunkSize < 1 {
		return 0, dlerrors.ErrInvalidChunkSize
	}

	_, end := metrics.StartSpan(ctx, metrics.SpanDigitStream)

	gen := digits.NewSpigot()
	if _, err := io.WriteString(w, string(byte('0'+gen.Next()))+"."); err != nil {
		end(err)
		return 0, err
	}

	var written int64
	buf := make([]byte, 0, chunkSize)
	for digitCount <= 0 || written < int64(digitCount) {
		if err := ctx.Err(); err != nil {
			end(err)
			p.collector.RecordDigits(uint64(written))
			return written, err
		}

		buf = buf[:0]
		for len(buf) < chunkSize && (digitCount <= 0 || written+int64(len(buf)) < int64(digitCount)) {
			buf = append(buf, byte('0'+gen.Next()))
		}
		if _, err := w.Write(buf); err != nil {
			end(err)
			p.collector.RecordDigits(uint64(written))
			return written, err
		}
		written += int64(len(buf))
	}

	end(nil)
	p.collector.RecordDigits(uint64(written))
	return written, nil
}
