package middleware

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
	requestIDKey
)

func store[T any](ctx context.Context, key ctxKey, v T) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

func load[T any](ctx context.Context, key ctxKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// UserIDFromContext returns the authenticated user id seeded by Auth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := load[int64](ctx, userIDKey)
	return v, ok && v > 0
}

func RoleFromContext(ctx context.Context) string {
	v, _ := load[string](ctx, roleKey)
	return v
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := load[string](ctx, requestIDKey)
	return v
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return store(ctx, userIDKey, userID)
}

func WithRole(ctx context.Context, role string) context.Context {
	return store(ctx, roleKey, role)
}

// WithRequestID stores the request id for handlers that echo it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return store(ctx, requestIDKey, requestID)
}
