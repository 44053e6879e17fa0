package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given
// collector. The namespace is prepended to all metric names (e.g.,
// "digitloom").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// --- Generation Metrics ---
	e.writeHelp(w, "generations_started_total", "Total generation requests started")
	e.writeType(w, "generations_started_total", "counter")
	e.writeMetric(w, "generations_started_total", labels, float64(snap.GenerationsStarted))

	e.writeHelp(w, "generations_completed_total", "Total generation requests completed successfully")
	e.writeType(w, "generations_completed_total", "counter")
	e.writeMetric(w, "generations_completed_total", labels, float64(snap.GenerationsCompleted))

	e.writeHelp(w, "generations_failed_total", "Total generation requests that failed")
	e.writeType(w, "generations_failed_total", "counter")
	e.writeMetric(w, "generations_failed_total", labels, float64(snap.GenerationsFailed))

	e.writeHelp(w, "digits_generated_total", "Total digit symbols produced")
	e.writeType(w, "digits_generated_total", "counter")
	e.writeMetric(w, "digits_generated_total", labels, float64(snap.DigitsGenerated))

	// --- Artifact Metrics ---
	e.writeHelp(w, "chunks_written_total", "Total container chunks written")
	e.writeType(w, "chunks_written_total", "counter")
	e.writeMetric(w, "chunks_written_total", labels, float64(snap.ChunksWritten))

	e.writeHelp(w, "chunks_read_total", "Total container chunks read back")
	e.writeType(w, "chunks_read_total", "counter")
	e.writeMetric(w, "chunks_read_total", labels, float64(snap.ChunksRead))

	e.writeHelp(w, "bytes_written_total", "Total raw artifact bytes written")
	e.writeType(w, "bytes_written_total", "counter")
	e.writeMetric(w, "bytes_written_total", labels, float64(snap.BytesWritten))

	// --- Verification Metrics ---
	e.writeHelp(w, "verifications_passed_total", "Total verifications that passed")
	e.writeType(w, "verifications_passed_total", "counter")
	e.writeMetric(w, "verifications_passed_total", labels, float64(snap.VerificationsPassed))

	e.writeHelp(w, "verifications_failed_total", "Total verifications that failed")
	e.writeType(w, "verifications_failed_total", "counter")
	e.writeMetric(w, "verifications_failed_total", labels, float64(snap.VerificationsFailed))

	// --- Error Metrics ---
	e.writeHelp(w, "auth_failures_total", "Total authentication failures")
	e.writeType(w, "auth_failures_total", "counter")
	e.writeMetric(w, "auth_failures_total", labels, float64(snap.AuthFailures))

	e.writeHelp(w, "codec_errors_total", "Total container and envelope codec errors")
	e.writeType(w, "codec_errors_total", "counter")
	e.writeMetric(w, "codec_errors_total", labels, float64(snap.CodecErrors))

	// --- Uptime ---
	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	// --- Histograms ---
	e.writeHistogram(w, "generation_duration_milliseconds", "Generation request duration in milliseconds", labels, snap.GenerationLatency)
	e.writeHistogram(w, "kdf_duration_milliseconds", "Key derivation duration in milliseconds", labels, snap.KDFLatency)
}

// writeHelp writes a HELP line.
func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

// writeType writes a TYPE line.
func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

// writeMetric writes a single metric line.
func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label format.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := escapePromValue(labels[k])
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, v))
	}

	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
