// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns a logger with the request ID of the outgoing backend call
// already attached, so every line written while handling a call is
// correlated:
//
//	log := logger.WithCtx(ctx)
//	log.Info("order submitted", "order_id", id)
//	// → time=... level=INFO msg="order submitted" request_id=a1b2c3d4 order_id=42
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/canteen/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stderr, config.IsProduction())
	slog.SetDefault(L)
}

// New builds a logger writing to w: JSON for production, text otherwise.
func New(w io.Writer, production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SetOutput swaps the base logger. The CLI uses it to silence debug output
// unless --verbose is given; tests use it to capture lines.
func SetOutput(l *slog.Logger) {
	if l == nil {
		return
	}
	L = l
	slog.SetDefault(L)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
