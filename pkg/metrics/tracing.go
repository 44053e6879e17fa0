package metrics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Tracer abstracts the tracing backend so library code can emit spans
// without depending on a particular vendor. NoOpTracer, SimpleTracer, and
// the build-tagged OTelTracer all satisfy it.
type Tracer interface {
	// StartSpan opens a span. The returned context carries the span for
	// parent/child linkage; the SpanEnder closes it.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder)
}

// SpanEnder closes a span. Pass nil on success, or the error that failed
// the traced operation.
type SpanEnder func(err error)

// SpanOption configures a span at start time.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       SpanKind
	attributes map[string]interface{}
}

// SpanKind identifies the role of a span.
type SpanKind int

// SpanKindInternal is the default; server and client kinds exist for
// tracer backends that distinguish them.
const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// WithAttributes attaches key-value attributes to the span.
func WithAttributes(attrs map[string]interface{}) SpanOption {
	return func(c *spanConfig) {
		c.attributes = attrs
	}
}

// --- NoOp Tracer ---

// NoOpTracer discards all spans. It is the default until SetTracer is
// called.
type NoOpTracer struct{}

// StartSpan returns the context unchanged and an ender that does nothing.
func (NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(error) {}
}

// --- Simple Tracer ---

// SimpleTracer records completed spans in memory, for tests and local
// debugging.
type SimpleTracer struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

// RecordedSpan is one completed span captured by SimpleTracer.
type RecordedSpan struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Kind       SpanKind
	Attributes map[string]interface{}
	Error      error
	TraceID    string
	SpanID     string
	ParentID   string
}

// NewSimpleTracer creates an empty in-memory tracer.
func NewSimpleTracer() *SimpleTracer {
	return &SimpleTracer{}
}

// StartSpan opens a span, inheriting the trace id of any span already in
// the context. The span is recorded when its ender runs.
func (t *SimpleTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := &spanConfig{
		kind:       SpanKindInternal,
		attributes: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	span := &RecordedSpan{
		Name:       name,
		StartTime:  time.Now(),
		Kind:       cfg.kind,
		Attributes: cfg.attributes,
		TraceID:    nextSpanID(),
		SpanID:     nextSpanID(),
	}
	if parent := spanFromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	}

	end := func(err error) {
		span.EndTime = time.Now()
		span.Duration = span.EndTime.Sub(span.StartTime)
		span.Error = err

		t.mu.Lock()
		t.spans = append(t.spans, *span)
		t.mu.Unlock()
	}
	return contextWithSpan(ctx, span), end
}

// Spans returns a copy of every recorded span.
func (t *SimpleTracer) Spans() []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]RecordedSpan(nil), t.spans...)
}

// Reset discards all recorded spans.
func (t *SimpleTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}

// --- Context helpers ---

type spanContextKey struct{}

func contextWithSpan(ctx context.Context, span *RecordedSpan) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

func spanFromContext(ctx context.Context) *RecordedSpan {
	span, _ := ctx.Value(spanContextKey{}).(*RecordedSpan)
	return span
}

// spanCounter feeds nextSpanID; uniqueness within a process is all the
// simple tracer needs.
var spanCounter atomic.Uint64

func nextSpanID() string {
	return fmt.Sprintf("span-%016x", spanCounter.Add(1))
}

// --- Global Tracer ---

var (
	globalTracer   Tracer = NoOpTracer{}
	globalTracerMu sync.RWMutex
)

// SetTracer installs the global tracer.
func SetTracer(t Tracer) {
	globalTracerMu.Lock()
	defer globalTracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer.
func GetTracer() Tracer {
	globalTracerMu.RLock()
	defer globalTracerMu.RUnlock()
	return globalTracer
}

// StartSpan opens a span on the global tracer.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return GetTracer().StartSpan(ctx, name, opts...)
}

// --- Span Names ---

// Standard span names for digitloom operations.
const (
	SpanGenerate        = "digitloom.generate"
	SpanPlan            = "digitloom.plan"
	SpanMaterialize     = "digitloom.materialize"
	SpanBinarySplit     = "digitloom.chudnovsky"
	SpanDigitStream     = "digitloom.digit_stream"
	SpanContainerWrite  = "digitloom.container.write"
	SpanContainerRead   = "digitloom.container.read"
	SpanEnvelopeEncrypt = "digitloom.envelope.encrypt"
	SpanEnvelopeDecrypt = "digitloom.envelope.decrypt"
	SpanVerify          = "digitloom.verify"
)

// SpanAttributes bundles the attributes a generation run attaches to its
// spans. Zero-valued fields are omitted from the emitted map.
type SpanAttributes struct {
	RequestID string
	Constant  string
	Base      int
	Digits    int
	Workers   int
	Chunks    uint64
	Format    string
	Error     string
}

// ToMap converts SpanAttributes to the loose map tracers accept.
func (a SpanAttributes) ToMap() map[string]interface{} {
	m := make(map[string]interface{})
	if a.RequestID != "" {
		m["request.id"] = a.RequestID
	}
	if a.Constant != "" {
		m["gen.constant"] = a.Constant
	}
	if a.Base > 0 {
		m["gen.base"] = a.Base
	}
	if a.Digits > 0 {
		m["gen.digits"] = a.Digits
	}
	if a.Workers > 0 {
		m["gen.workers"] = a.Workers
	}
	if a.Chunks > 0 {
		m["artifact.chunks"] = a.Chunks
	}
	if a.Format != "" {
		m["artifact.format"] = a.Format
	}
	if a.Error != "" {
		m["error.message"] = a.Error
	}
	return m
}
