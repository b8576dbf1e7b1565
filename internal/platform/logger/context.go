package logger

import "context"

type ctxKey string

const loggerKey ctxKey = "logger"

// WithContext guarda l en ctx (el middleware de request lo usa con request_id).
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext devuelve el logger del request, o fallback si no hay.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return Nop()
	}
	return fallback
}
