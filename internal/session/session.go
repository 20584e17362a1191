// Package session carries the authenticated caller explicitly through
// service calls.
package session

import "context"

type Session struct {
	UserID   int64
	UserName string
	Role     string
}

const RoleAdmin = "admin"

func (s Session) IsAuthenticated() bool { return s.UserID > 0 }

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession, or the zero value.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
