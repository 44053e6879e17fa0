// Package metrics provides observability primitives for the digitloom library.
//
// The package includes:
//   - a Collector of counters and histograms for generation pipelines
//   - Prometheus-compatible metrics export
//   - OpenTelemetry tracing support
//   - structured logging with levels
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics across generation requests. All methods are
// safe for concurrent use.
type Collector struct {
	// Generation metrics
	generationsStarted   atomic.Uint64
	generationsCompleted atomic.Uint64
	generationsFailed    atomic.Uint64
	digitsGenerated      atomic.Uint64

	// Artifact metrics
	chunksWritten atomic.Uint64
	chunksRead    atomic.Uint64
	bytesWritten  atomic.Uint64

	// Verification metrics
	verificationsPassed atomic.Uint64
	verificationsFailed atomic.Uint64

	// Error metrics
	authFailures atomic.Uint64
	codecErrors  atomic.Uint64

	// Performance histograms
	generationLatency *Histogram
	kdfLatency        *Histogram

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// Default bucket configurations for histograms.
var (
	// GenerationLatencyBuckets for whole-request duration (milliseconds).
	GenerationLatencyBuckets = []float64{10, 50, 100, 500, 1000, 5000, 15000, 60000, 300000}

	// KDFLatencyBuckets for key derivation duration (milliseconds).
	KDFLatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000}
)

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}
	return &Collector{
		generationLatency: NewHistogram(GenerationLatencyBuckets),
		kdfLatency:        NewHistogram(KDFLatencyBuckets),
		createdAt:         time.Now(),
		labels:            labels,
	}
}

// --- Generation Metrics ---

// GenerationStarted records the start of one generation request.
func (c *Collector) GenerationStarted() {
	c.generationsStarted.Add(1)
}

// GenerationCompleted records a successful generation and its duration.
func (c *Collector) GenerationCompleted(d time.Duration) {
	c.generationsCompleted.Add(1)
	c.generationLatency.Observe(float64(d.Milliseconds()))
}

// GenerationFailed records a failed generation request.
func (c *Collector) GenerationFailed() {
	c.generationsFailed.Add(1)
}

// RecordDigits adds to the generated-digit counter.
func (c *Collector) RecordDigits(n uint64) {
	c.digitsGenerated.Add(n)
}

// --- Artifact Metrics ---

// RecordChunkWritten increments the written-chunk counter and adds the
// chunk's raw size to the byte counter.
func (c *Collector) RecordChunkWritten(rawBytes uint64) {
	c.chunksWritten.Add(1)
	c.bytesWritten.Add(rawBytes)
}

// RecordChunkRead increments the read-chunk counter.
func (c *Collector) RecordChunkRead() {
	c.chunksRead.Add(1)
}

// --- Verification Metrics ---

// RecordVerification records one verification outcome.
func (c *Collector) RecordVerification(passed bool) {
	if passed {
		c.verificationsPassed.Add(1)
	} else {
		c.verificationsFailed.Add(1)
	}
}

// --- Error Metrics ---

// RecordAuthFailure increments the authentication failure counter.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// RecordCodecError increments the codec error counter.
func (c *Collector) RecordCodecError() {
	c.codecErrors.Add(1)
}

// --- Performance Metrics ---

// RecordKDFLatency records a key derivation duration.
func (c *Collector) RecordKDFLatency(d time.Duration) {
	c.kdfLatency.Observe(float64(d.Milliseconds()))
}

// --- Snapshot ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	GenerationsStarted   uint64
	GenerationsCompleted uint64
	GenerationsFailed    uint64
	DigitsGenerated      uint64

	ChunksWritten uint64
	ChunksRead    uint64
	BytesWritten  uint64

	VerificationsPassed uint64
	VerificationsFailed uint64

	AuthFailures uint64
	CodecErrors  uint64

	GenerationLatency HistogramSummary
	KDFLatency        HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:            time.Now(),
		Uptime:               time.Since(c.createdAt),
		GenerationsStarted:   c.generationsStarted.Load(),
		GenerationsCompleted: c.generationsCompleted.Load(),
		GenerationsFailed:    c.generationsFailed.Load(),
		DigitsGenerated:      c.digitsGenerated.Load(),
		ChunksWritten:        c.chunksWritten.Load(),
		ChunksRead:           c.chunksRead.Load(),
		BytesWritten:         c.bytesWritten.Load(),
		VerificationsPassed:  c.verificationsPassed.Load(),
		VerificationsFailed:  c.verificationsFailed.Load(),
		AuthFailures:         c.authFailures.Load(),
		CodecErrors:          c.codecErrors.Load(),
		GenerationLatency:    c.generationLatency.Summary(),
		KDFLatency:           c.kdfLatency.Summary(),
		Labels:               c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.generationsStarted.Store(0)
	c.generationsCompleted.Store(0)
	c.generationsFailed.Store(0)
	c.digitsGenerated.Store(0)
	c.chunksWritten.Store(0)
	c.chunksRead.Store(0)
	c.bytesWritten.Store(0)
	c.verificationsPassed.Store(0)
	c.verificationsFailed.Store(0)
	c.authFailures.Store(0)
	c.codecErrors.Store(0)
	c.generationLatency.Reset()
	c.kdfLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector, creating one with default
// settings on first use.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector. Call during initialization,
// before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
