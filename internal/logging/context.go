package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	batchIDKey ctxKey = iota
	sourceKey
	flagKeyKey
)

// WithBatchID returns a context with the batch ID set.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// WithSource returns a context with the input source (file name, "stdin",
// MCP tool) set.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// WithFlagKey returns a context with the flag key being resolved.
func WithFlagKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, flagKeyKey, key)
}

// BatchID extracts the batch ID from the context, or "" if absent.
func BatchID(ctx context.Context) string {
	v, _ := ctx.Value(batchIDKey).(string)
	return v
}

// Source extracts the input source from the context, or "" if absent.
func Source(ctx context.Context) string {
	v, _ := ctx.Value(sourceKey).(string)
	return v
}

// FlagKey extracts the flag key from the context, or "" if absent.
func FlagKey(ctx context.Context) string {
	v, _ := ctx.Value(flagKeyKey).(string)
	return v
}

// WithIDs sets batch ID and source on the context at once.
func WithIDs(ctx context.Context, batchID, source string) context.Context {
	ctx = WithBatchID(ctx, batchID)
	ctx = WithSource(ctx, source)
	return ctx
}

func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if v := BatchID(ctx); v != "" {
		attrs = append(attrs, slog.String("batch_id", v))
	}
	if v := Source(ctx); v != "" {
		attrs = append(attrs, slog.String("source", v))
	}
	if v := FlagKey(ctx); v != "" {
		attrs = append(attrs, slog.String("flag_key", v))
	}
	return attrs
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation values from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and values appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
