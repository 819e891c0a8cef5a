// Package oteltrace adapts the global OpenTelemetry tracer to the Tracer port.
package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultScope = "vending"

type tracer struct {
	t trace.Tracer
}

// New returns a tracer for the named instrumentation scope. Spans are internal
// children of whatever span the context carries, normally the HTTP server span.
// Without an SDK provider installed they are no-ops but still propagate.
func New(scope string) observability.Tracer {
	if scope == "" {
		scope = defaultScope
	}
	return &tracer{t: otel.Tracer(scope, trace.WithInstrumentationAttributes(attribute.String("component", "application")))}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}
