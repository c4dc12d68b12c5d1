// Package log provides slog handlers.
package log

import (
	"context"
	"log/slog"

	"campus-events/internal/middleware"
)

// ContextHandler adds the request id and the acting account from the
// context to each record. Logs written outside a request carry neither.
type ContextHandler struct {
	slog.Handler
}

func New(handler slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: handler}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := middleware.RequestID(ctx); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	// public routes have no actor
	if uid, ok := middleware.UserID(ctx); ok {
		r.AddAttrs(slog.String("actor", uid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return New(h.Handler.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return New(h.Handler.WithGroup(name))
}

// ParseLevel maps a config value such as "debug" or "WARN" to a level.
// Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
