// Package pipeline orchestrates generation requests end to end: precision
// planning, value materialization, digit extraction, artifact serialization
// and the verification pass over what was actually written.
package pipeline

import (
	"context"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/chudnovsky"
	"github.com/digitloom/digitloom/pkg/container"
	"github.com/digitloom/digitloom/pkg/digits"
	"github.com/digitloom/digitloom/pkg/envelope"
	"github.com/digitloom/digitloom/pkg/eval"
	"github.com/digitloom/digitloom/pkg/metrics"
	"github.com/digitloom/digitloom/pkg/verify"
)

// Request describes one generation run.
type Request struct {
	// Constant names a catalog constant; Expression is evaluated instead
	// when Constant is empty. Exactly one of the two should be set.
	Constant   string
	Expression string

	// Digits is the number of fractional digits to produce, in Base.
	Digits int
	Base   int

	// Format selects the artifact serialization; FormatContainer writes a
	// chunked container to OutputPath, everything else returns bytes.
	Format     string
	OutputPath string

	// Compression and Encryption apply to container output; buffered
	// formats are optionally wrapped in an encryption envelope instead.
	Compression string
	Encryption  string
	Password    string

	// ChunkSize is the number of digit symbols per container chunk.
	ChunkSize int

	// Workers bounds binary-splitting parallelism for base-10 pi.
	Workers int

	// VerifySamples asks the oracle to check this many leading digits of
	// the produced artifact; zero or negative skips verification.
	VerifySamples int

	// Metadata is passed through into container headers and envelope
	// associated data.
	Metadata map[string]string
}

// Result is the outcome of one generation run.
type Result struct {
	RequestID string

	// Artifact holds the serialized bytes for buffered formats; Path is
	// set instead when a container was written.
	Artifact []byte
	Path     string

	Digits       int
	Verification *verify.Result
	Elapsed      time.Duration
}

// Pipeline runs generation requests. The zero value is not usable; use New.
type Pipeline struct {
	log       *metrics.Logger
	collector *metrics.Collector
}

// New creates a pipeline. A nil logger or collector falls back to the
// package globals.
func New(log *metrics.Logger, collector *metrics.Collector) *Pipeline {
	if log == nil {
		log = metrics.GetLogger()
	}
	if collector == nil {
		collector = metrics.Global()
	}
	return &Pipeline{log: log.Named("pipeline"), collector: collector}
}

// Run executes one generation request.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	requestID := uuid.NewString()
	normalize(&req)

	log := p.log.With(metrics.Fields{"request": requestID})
	p.collector.GenerationStarted()

	ctx, end := metrics.StartSpan(ctx, metrics.SpanGenerate, metrics.WithAttributes(metrics.SpanAttributes{
		RequestID: requestID,
		Constant:  req.Constant,
		Base:      req.Base,
		Digits:    req.Digits,
		Workers:   req.Workers,
		Format:    req.Format,
	}.ToMap()))

	result, err := p.run(ctx, requestID, req, log)
	end(err)
	if err != nil {
		p.collector.GenerationFailed()
		log.Error("generation failed", metrics.Fields{"error": err.Error()})
		return nil, err
	}

	result.Elapsed = time.Since(start)
	p.collector.GenerationCompleted(result.Elapsed)
	log.Info("generation completed", metrics.Fields{
		"constant": req.Constant,
		"digits":   req.Digits,
		"base":     req.Base,
		"format":   req.Format,
		"elapsed":  result.Elapsed.String(),
	})
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, requestID string, req Request, log *metrics.Logger) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// Verification recomputes a prefix independently; generate with the
	// larger guard so both sides agree past the compared digits.
	guard := constants.DefaultGuardDigits
	if req.VerifySamples > 0 {
		guard = constants.VerifyGuardDigits
	}
	planDigits, err := digits.Plan(req.Digits, req.Base, guard)
	if err != nil {
		return nil, err
	}
	log.Debug("planned precision", metrics.Fields{"decimal_digits": planDigits})

	value, err := p.materialize(ctx, req, planDigits)
	if err != nil {
		return nil, err
	}

	integer, err := digits.FormatInt(value.IntegerPart(), req.Base)
	if err != nil {
		return nil, err
	}
	stream, err := digits.NewChunkStream(value, req.Digits, req.Base, req.ChunkSize)
	if err != nil {
		return nil, err
	}
	fractional := string(stream.CollectPrefix(req.Digits))
	p.collector.RecordDigits(uint64(len(fractional)))

	result := &Result{RequestID: requestID, Digits: len(fractional)}

	var candidate string
	if req.Format == FormatContainer {
		candidate, err = p.writeContainer(ctx, requestID, req, integer, fractional, log)
		if err != nil {
			return nil, err
		}
		result.Path = req.OutputPath
	} else {
		artifact, readback, err := p.buffered(ctx, req, integer, fractional)
		if err != nil {
			return nil, err
		}
		result.Artifact = artifact
		candidate = readback
	}

	if req.VerifySamples > 0 {
		_, endVerify := metrics.StartSpan(ctx, metrics.SpanVerify)
		outcome, err := verify.Verify(req.Constant, req.Expression, req.Base, req.VerifySamples, candidate)
		endVerify(err)
		if err != nil {
			return nil, err
		}
		p.collector.RecordVerification(outcome.Passed)
		if !outcome.Passed {
			log.Warn("verification mismatch", metrics.Fields{"method": outcome.Method})
		}
		result.Verification = &outcome
	}
	return result, nil
}

// materialize produces the high-precision value for the request. Base-10 pi
// goes through the binary-splitting engine so it can use parallel workers;
// everything else goes through the evaluation path.
func (p *Pipeline) materialize(ctx context.Context, req Request, planDigits int) (digits.Value, error) {
	name := strings.ToLower(strings.TrimSpace(req.Constant))

	_, end := metrics.StartSpan(ctx, metrics.SpanMaterialize)
	var value digits.Value
	var err error
	switch {
	case name == "pi" && req.Base == 10:
		pi, ferr := chudnovsky.Float(planDigits, req.Workers)
		if ferr != nil {
			err = ferr
			break
		}
		value = digits.NewValue(pi, planDigits)
	case name != "":
		value, err = eval.Constant(name, planDigits)
	case strings.TrimSpace(req.Expression) != "":
		value, err = eval.Evaluate(req.Expression, planDigits)
	default:
		err = dlerrors.NewEvalError("", dlerrors.ErrBadExpression)
	}
	end(err)
	return value, err
}

// writeContainer streams the fractional digits into a chunk container and
// reads them back for verification. Cancellation between chunks still
// closes the writer, leaving a container readable up to the last flushed
// chunk.
func (p *Pipeline) writeContainer(ctx context.Context, requestID string, req Request, integer, fractional string, log *metrics.Logger) (string, error) {
	meta := make(map[string]string, len(req.Metadata)+6)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	meta["constant"] = req.Constant
	if req.Expression != "" {
		meta["expression"] = req.Expression
	}
	meta["base"] = strconv.Itoa(req.Base)
	meta["digit_count"] = strconv.Itoa(req.Digits)
	meta["integer"] = integer
	meta["request_id"] = requestID

	_, end := metrics.StartSpan(ctx, metrics.SpanContainerWrite)

	w, err := container.NewWriter(req.OutputPath, meta, req.Compression, req.Encryption, req.Password)
	if err != nil {
		end(err)
		return "", err
	}

	for start := 0; start < len(fractional); start += req.ChunkSize {
		if err := ctx.Err(); err != nil {
			w.Close()
			end(err)
			return "", err
		}
		stop := start + req.ChunkSize
		if stop > len(fractional) {
			stop = len(fractional)
		}
		chunk := fractional[start:stop]
		if err := w.Write([]byte(chunk)); err != nil {
			w.Close()
			end(err)
			return "", err
		}
		p.collector.RecordChunkWritten(uint64(len(chunk)))
	}
	chunks := w.Chunks()
	if err := w.Close(); err != nil {
		end(err)
		return "", err
	}
	end(nil)
	log.Debug("container written", metrics.Fields{"path": req.OutputPath, "chunks": chunks})

	return p.readContainerBack(req.OutputPath, req.Password)
}

// readContainerBack re-reads every chunk of a freshly written container so
// verification covers the bytes on disk, not the in-memory intermediate.
// Container chunks carry only fractional digit text; the integer part
// lives in the header metadata.
func (p *Pipeline) readContainerBack(path, password string) (string, error) {
	r, err := container.NewReader(path, password)
	if err != nil {
		p.recordReadFailure(err)
		return "", err
	}
	defer r.Close()

	var sb strings.Builder
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			p.recordReadFailure(err)
			return "", err
		}
		p.collector.RecordChunkRead()
		sb.Write(chunk)
	}
}

// recordReadFailure classifies an artifact read error for the collector:
// AEAD failures count against authentication, everything else against
// the codec.
func (p *Pipeline) recordReadFailure(err error) {
	if dlerrors.Is(err, dlerrors.ErrAuthenticationFailed) {
		p.collector.RecordAuthFailure()
		return
	}
	p.collector.RecordCodecError()
}

// buffered serializes the value in memory, optionally sealing it in an
// encryption envelope, and returns both the artifact and the fractional
// digits recovered from it.
func (p *Pipeline) buffered(ctx context.Context, req Request, integer, fractional string) ([]byte, string, error) {
	artifact, err := Serialize(req.Format, req, integer, fractional)
	if err != nil {
		return nil, "", err
	}

	if req.Encryption == constants.EncryptionNone {
		readback, err := ExtractFractional(req.Format, artifact, req.Base)
		if err != nil {
			p.collector.RecordCodecError()
			return nil, "", err
		}
		return artifact, readback, nil
	}

	_, endSeal := metrics.StartSpan(ctx, metrics.SpanEnvelopeEncrypt)
	kdfStart := time.Now()
	blob, err := envelope.Encrypt(artifact, req.Password, req.Encryption, req.Metadata)
	p.collector.RecordKDFLatency(time.Since(kdfStart))
	endSeal(err)
	if err != nil {
		return nil, "", err
	}

	// Read back through the envelope so verification covers the final
	// artifact bytes.
	_, endOpen := metrics.StartSpan(ctx, metrics.SpanEnvelopeDecrypt)
	inner, _, err := envelope.Decrypt(blob, req.Password)
	endOpen(err)
	if err != nil {
		p.recordReadFailure(err)
		return nil, "", err
	}
	readback, err := ExtractFractional(req.Format, inner, req.Base)
	if err != nil {
		p.collector.RecordCodecError()
		return nil, "", err
	}
	return blob, readback, nil
}

func normalize(req *Request) {
	if req.Base == 0 {
		req.Base = 10
	}
	if req.Format == "" {
		req.Format = FormatText
	}
	if req.Compression == "" {
		req.Compression = constants.CompressionNone
	}
	if req.Encryption == "" {
		req.Encryption = constants.EncryptionNone
	}
	if req.ChunkSize < 1 {
		req.ChunkSize = 1024
	}
	if req.Workers < 1 {
		req.Workers = runtime.GOMAXPROCS(0)
	}
}

func validate(req Request) error {
	if req.Digits < 0 {
		return dlerrors.ErrNegativeDigits
	}
	if !KnownFormat(req.Format) {
		return dlerrors.ErrUnsupportedCombination
	}
	if req.Format == FormatContainer && req.OutputPath == "" {
		return dlerrors.ErrUnsupportedCombination
	}
	if req.Format != FormatContainer && req.Compression != constants.CompressionNone {
		// Compressed buffered artifacts would not be self-describing;
		// compression rides inside the container format only.
		return dlerrors.ErrUnsupportedCombination
	}
	if req.Encryption != constants.EncryptionNone && req.Password == "" {
		return dlerrors.ErrPasswordRequired
	}
	return nil
}
