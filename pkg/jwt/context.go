package jwt

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var jwtContextKey = &contextKey{name: "jwt"}

// SetToken stores the raw bearer token in the context so downstream calls to
// other services can forward the caller's credentials.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, jwtContextKey, token)
}

// GetToken returns the bearer token stored in the context, if any.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(jwtContextKey).(string)
	return token, ok
}
