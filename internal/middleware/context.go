package middleware

import "context"

type ctxKey int

const (
	ctxKeyIsHTMX ctxKey = iota
	ctxKeySession
	ctxKeyLocaleFB
	ctxKeyRequestID
)

// WithRequestID stores the chi request id for handlers that surface it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRequestID).(string)
	return v, ok && v != ""
}

// WithHTMX records whether the request was issued by htmx.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

func withLocaleFallback(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKeyLocaleFB, lang)
}

func localeFallback(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyLocaleFB).(string)
	return v
}
