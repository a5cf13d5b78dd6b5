package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/labhub/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// TraceHandler stamps every record with the active span and, once a request
// has been authenticated, the acting user.
type TraceHandler struct {
	next slog.Handler
}

func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, r)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if p, ok := actorctx.PrincipalFrom(ctx); ok {
		r.AddAttrs(slog.String("actor_id", p.UserID))
		if p.IsSuperuser {
			r.AddAttrs(slog.Bool("actor_superuser", true))
		}
	}

	return h.next.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}
