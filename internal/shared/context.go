package shared

import "context"

type (
	sessionContextKey struct{}
	adminContextKey   struct{}
)

// Admin identifies the signed-in dashboard user.
type Admin struct {
	ID    int64
	Email string
	Name  string
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithAdmin stores the authenticated admin in context.
func ContextWithAdmin(ctx context.Context, admin Admin) context.Context {
	return context.WithValue(ctx, adminContextKey{}, admin)
}

// AdminFromContext returns the authenticated admin, if any.
func AdminFromContext(ctx context.Context) (Admin, bool) {
	admin, ok := ctx.Value(adminContextKey{}).(Admin)
	return admin, ok
}
