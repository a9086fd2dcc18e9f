package auth

import "context"

// Identity is the authenticated caller, resolved once per request by the
// Gateway and handed to handlers explicitly.
type Identity struct {
	UserID string
}

type ctxKey string

const identityKey ctxKey = "interntrack.identity"

// WithIdentity stores id in ctx for code that only receives a context, such
// as rate-limit key functions and access logs.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
