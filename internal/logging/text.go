package logging

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TextLogger writes human-readable key=value lines through log/slog. It is
// the console backend selected by the "text" log format and carries the
// same trace fields as the zap backend.
type TextLogger struct {
	h slog.Handler
}

func NewTextLogger(w io.Writer, level Level) *TextLogger {
	return &TextLogger{h: slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})}
}

func (l *TextLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args)
}

func (l *TextLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args)
}

func (l *TextLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args)
}

func (l *TextLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args)
}

func (l *TextLogger) With(args ...any) Logger {
	return &TextLogger{h: l.h.WithAttrs(textAttrs(args))}
}

func (l *TextLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.h.Enabled(ctx, level) {
		return
	}

	// skip runtime.Callers, log and the level method
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.AddAttrs(textAttrs(args)...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	_ = l.h.Handle(ctx, r)
}

// textAttrs mirrors zapFields: non-string keys become "arg", a dangling key
// gets a nil value and errors are written by message.
func textAttrs(args []any) []slog.Attr {
	out := make([]slog.Attr, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg"
		}
		if i+1 >= len(args) {
			out = append(out, slog.Any(key, nil))
			break
		}
		if err, ok := args[i+1].(error); ok {
			out = append(out, slog.String(key, err.Error()))
			continue
		}
		out = append(out, slog.Any(key, args[i+1]))
	}
	return out
}
