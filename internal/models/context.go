package models

import "context"

type sessionContextKey struct{}

// WithSession attaches the active session to a context so callers pass it
// explicitly instead of reading shared storage.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// GetSession retrieves the session from context, or nil if absent.
func GetSession(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey{}).(*Session)
	return s
}
