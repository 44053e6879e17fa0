//go:build !otel
// +build !otel

package metrics

import "context"

// OTelTracer is compiled as an inert stand-in when the otel build tag is
// absent, so callers can reference the type unconditionally.
type OTelTracer struct{}

// NewOTelTracer returns the inert tracer; the service name is ignored.
func NewOTelTracer(serviceName string) *OTelTracer {
	_ = serviceName
	return &OTelTracer{}
}

// StartSpan passes the context through untouched.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(error) {}
}

// OTelEnabled reports whether OpenTelemetry support is built in.
func OTelEnabled() bool {
	return false
}
