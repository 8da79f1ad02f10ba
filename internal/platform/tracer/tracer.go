// Package tracer defines the small tracing surface the admission gates use,
// decoupling them from the OpenTelemetry API.
package tracer

import "context"

// Span is a live trace span.
type Span interface {
	// SetAttribute records a key/value on the span.
	SetAttribute(key, value string)
	// RecordError marks the span as failed.
	RecordError(err error)
	// End finishes the span.
	End()
}

// Tracer starts spans for admission decisions.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Noop returns a tracer that records nothing; used when tracing is disabled
// and in tests.
func Noop() Tracer { return noopTracer{} }

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) SetAttribute(string, string) {}
func (noopSpan) RecordError(error)           {}
func (noopSpan) End()                        {}
