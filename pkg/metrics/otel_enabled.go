//go:build otel
// +build otel

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelTracer bridges the Tracer interface onto OpenTelemetry. Spans are
// exported through whatever provider the host process has installed
// globally; this package never configures exporters itself.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer returns a tracer named after the instrumented service.
func NewOTelTracer(serviceName string) *OTelTracer {
	if serviceName == "" {
		serviceName = "digitloom"
	}
	return &OTelTracer{tracer: otel.Tracer(serviceName)}
}

// StartSpan opens an OTel span and returns an ender that records the
// outcome: an error marks the span failed, nil marks it ok.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := &spanConfig{
		kind:       SpanKindInternal,
		attributes: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	startOpts := make([]trace.SpanStartOption, 0, 2)
	startOpts = append(startOpts, trace.WithSpanKind(toOTelKind(cfg.kind)))
	if len(cfg.attributes) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(toOTelAttrs(cfg.attributes)...))
	}

	ctx, span := t.tracer.Start(ctx, name, startOpts...)
	end := func(err error) {
		if err == nil {
			span.SetStatus(codes.Ok, "")
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return ctx, end
}

// OTelEnabled reports whether OpenTelemetry support is built in.
func OTelEnabled() bool {
	return true
}

func toOTelKind(kind SpanKind) trace.SpanKind {
	switch kind {
	case SpanKindServer:
		return trace.SpanKindServer
	case SpanKindClient:
		return trace.SpanKindClient
	}
	return trace.SpanKindInternal
}

// toOTelAttrs converts loose attribute maps to typed key-values; anything
// without a direct OTel type is stringified.
func toOTelAttrs(attrs map[string]interface{}) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, val))
		case bool:
			kvs = append(kvs, attribute.Bool(k, val))
		case int:
			kvs = append(kvs, attribute.Int(k, val))
		case int64:
			kvs = append(kvs, attribute.Int64(k, val))
		case uint64:
			kvs = append(kvs, attribute.Int64(k, int64(val)))
		case float64:
			kvs = append(kvs, attribute.Float64(k, val))
		default:
			kvs = append(kvs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return kvs
}
