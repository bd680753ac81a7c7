package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CheckMeta contains metadata about a check for telemetry purposes.
type CheckMeta struct {
	ID        string   // Fully qualified check ID (namespace.name or just name)
	Namespace string   // Check namespace (may be empty)
	Name      string   // Check name (required)
	Version   string   // Check version (optional)
	Tags      []string // Check tags for discovery (optional)
	Category  string   // Check category (optional)
}

// SpanName returns the deterministic span name for this check.
// Format: check.exec.<namespace>.<name> or check.exec.<name>
func (m CheckMeta) SpanName() string {
	if m.Namespace != "" {
		return "check.exec." + m.Namespace + "." + m.Name
	}
	return "check.exec." + m.Name
}

// CheckID returns the fully qualified check identifier.
// If ID field is set, returns it. Otherwise constructs from namespace and name.
func (m CheckMeta) CheckID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// Validate returns ErrMissingCheckName when Name is empty.
func (m CheckMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingCheckName
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with check-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan derives the returned context from ctx; it returns no error.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for check execution.
	StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with check metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	// Build attributes
	attrs := []attribute.KeyValue{
		attribute.String("check.id", meta.CheckID()),
		attribute.String("check.name", meta.Name),
		attribute.Bool("check.error", false), // Will be updated in EndSpan if error
	}

	// Add namespace if present
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("check.namespace", meta.Namespace))
	}

	// Add optional attributes if present
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("check.version", meta.Version))
	}
	if meta.Category != "" {
		attrs = append(attrs, attribute.String("check.category", meta.Category))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("check.tags", meta.Tags))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("check.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
