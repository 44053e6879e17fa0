package metrics

import (
	"math"
	"sort"
	"sync"
)

// Histogram accumulates observations into fixed buckets. Safe for
// concurrent use.
type Histogram struct {
	mu     sync.Mutex
	bounds []float64 // sorted upper bounds; final +Inf bucket is implicit
	counts []uint64  // len(bounds)+1, last slot is the overflow bucket
	sum    float64
	total  uint64
	min    float64
	max    float64
}

// NewHistogram creates a histogram over the given bucket upper bounds.
// The bounds need not be sorted.
func NewHistogram(bounds []float64) *Histogram {
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	return &Histogram{
		bounds: sorted,
		counts: make([]uint64, len(sorted)+1),
	}
}

// Observe records one value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counts[sort.SearchFloat64s(h.bounds, v)]++
	h.sum += v
	if h.total == 0 || v < h.min {
		h.min = v
	}
	if h.total == 0 || v > h.max {
		h.max = v
	}
	h.total++
}

// HistogramSummary is a point-in-time view of a histogram.
type HistogramSummary struct {
	Count       uint64              `json:"count"`
	Sum         float64             `json:"sum"`
	Min         float64             `json:"min"`
	Max         float64             `json:"max"`
	Mean        float64             `json:"mean"`
	Buckets     []BucketCount       `json:"buckets"`
	Percentiles map[float64]float64 `json:"percentiles,omitempty"`
}

// BucketCount is one cumulative histogram bucket.
type BucketCount struct {
	UpperBound float64 `json:"le"`
	Count      uint64  `json:"count"` // observations at or below UpperBound
}

// summaryPercentiles are the quantiles reported by Summary.
var summaryPercentiles = []float64{0.5, 0.9, 0.95, 0.99}

// Summary snapshots the histogram, including cumulative bucket counts and
// interpolated percentile estimates.
func (h *Histogram) Summary() HistogramSummary {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total == 0 {
		return HistogramSummary{
			Buckets:     []BucketCount{},
			Percentiles: map[float64]float64{},
		}
	}

	buckets := make([]BucketCount, 0, len(h.counts))
	var running uint64
	for i, c := range h.counts {
		running += c
		bound := math.Inf(1)
		if i < len(h.bounds) {
			bound = h.bounds[i]
		}
		buckets = append(buckets, BucketCount{UpperBound: bound, Count: running})
	}

	return HistogramSummary{
		Count:       h.total,
		Sum:         h.sum,
		Min:         h.min,
		Max:         h.max,
		Mean:        h.sum / float64(h.total),
		Buckets:     buckets,
		Percentiles: h.quantiles(summaryPercentiles),
	}
}

// quantiles estimates the given quantiles by linear interpolation within
// the bucket each rank lands in. Caller holds h.mu.
func (h *Histogram) quantiles(qs []float64) map[float64]float64 {
	out := make(map[float64]float64, len(qs))

	for _, q := range qs {
		rank := q * float64(h.total)
		var running uint64
		for i, c := range h.counts {
			running += c
			if float64(running) < rank {
				continue
			}
			switch {
			case i == 0:
				out[q] = h.bounds[0] / 2
			case i >= len(h.bounds):
				// Overflow bucket has no upper bound; report the max seen.
				out[q] = h.max
			default:
				lo, hi := h.bounds[i-1], h.bounds[i]
				within := (rank - float64(running-c)) / float64(c)
				out[q] = lo + within*(hi-lo)
			}
			break
		}
	}
	return out
}

// Reset discards all observations, keeping the bucket layout.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.counts)
	h.sum = 0
	h.total = 0
	h.min = 0
	h.max = 0
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Mean returns the mean observation, or 0 before any Observe.
func (h *Histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.total == 0 {
		return 0
	}
	return h.sum / float64(h.total)
}
