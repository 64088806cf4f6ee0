package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for gores operations
const TracerName = "github.com/willibrandon/gores"

// Common attribute keys
const (
	AttrResourceID    = attribute.Key("gores.resource.id")
	AttrResourceCount = attribute.Key("gores.resource.count")
	AttrContext       = attribute.Key("gores.context")
	AttrOperation     = attribute.Key("gores.operation")
	AttrFormat        = attribute.Key("gores.bundle.format")
	AttrCommand       = attribute.Key("gores.command")
)

// StartBuildSpan starts a span for building every resource of a manager
func StartBuildSpan(ctx context.Context, resourceCount int) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "resources.build",
		trace.WithAttributes(
			AttrResourceCount.Int(resourceCount),
			AttrOperation.String("build"),
		),
	)
}

// StartResolveSpan starts a span for resolving one resource against a context
func StartResolveSpan(ctx context.Context, resourceID, contextDesc string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "resource.resolve",
		trace.WithAttributes(
			AttrResourceID.String(resourceID),
			AttrContext.String(contextDesc),
			AttrOperation.String("resolve"),
		),
	)
}

// StartDeltaSpan starts a span for delta generation
func StartDeltaSpan(ctx context.Context, contextDesc string, resourceCount int) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "delta.generate",
		trace.WithAttributes(
			AttrContext.String(contextDesc),
			AttrResourceCount.Int(resourceCount),
			AttrOperation.String("delta"),
		),
	)
}

// StartBundleSpan starts a span for bundle encoding or loading
func StartBundleSpan(ctx context.Context, operation, format string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "bundle."+operation,
		trace.WithAttributes(
			AttrFormat.String(format),
			AttrOperation.String(operation),
		),
	)
}

// StartCommandSpan starts a span for a command line invocation
func StartCommandSpan(ctx context.Context, command string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "cli."+command,
		trace.WithAttributes(AttrCommand.String(command)),
	)
}

// RecordCacheHit records a resolver cache lookup as a span event
func RecordCacheHit(ctx context.Context, kind string, hit bool) {
	AddEvent(ctx, "cache.lookup",
		attribute.String("cache.kind", kind),
		attribute.Bool("cache.hit", hit),
	)
}

// EndSpanWithError ends a span with an error status
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
