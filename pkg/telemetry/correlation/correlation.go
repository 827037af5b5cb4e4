package correlation

import (
	"context"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
)

type correlationKey struct{}

// ExtractCorrelationID fetches a correlation ID from the context if present.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithCorrelationID sets the correlation ID onto the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating a ULID when missing.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	cid := ExtractCorrelationID(ctx)
	if cid == "" {
		cid = ulid.Make().String()
	}
	return ContextWithCorrelationID(ctx, cid), cid
}

// Detach returns a background context that keeps the correlation ID and span of ctx
// but not its cancellation. Used for work that must outlive the request.
func Detach(ctx context.Context) context.Context {
	detached := context.Background()
	if ctx == nil {
		return detached
	}
	if cid := ExtractCorrelationID(ctx); cid != "" {
		detached = ContextWithCorrelationID(detached, cid)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		detached = trace.ContextWithSpanContext(detached, sc)
	}
	return detached
}
