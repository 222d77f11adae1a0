package utils

import (
	"context"
)

// SessionCookie is the name of the HTTP-only cookie carrying the session token.
const SessionCookie = "access_token"

// Principal is the authenticated identity resolved from a valid session token.
// It never carries the password hash or salt.
type Principal struct {
	ID      string
	Email   string
	Name    string
	IsAdmin bool
}

type contextKey string

const ContextPrincipalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

func GetPrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(Principal)
	return p, ok
}
