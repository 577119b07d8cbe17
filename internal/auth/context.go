package auth

import "context"

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, identity IdentitySummary) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &identity)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (IdentitySummary, bool) {
	if ctx == nil {
		return IdentitySummary{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*IdentitySummary)
	if !ok || v == nil || v.UserID == "" {
		return IdentitySummary{}, false
	}
	return *v, true
}

// RequireIdentity returns the identity in ctx or ErrNotAuthenticated.
func RequireIdentity(ctx context.Context) (IdentitySummary, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return IdentitySummary{}, ErrNotAuthenticated
	}
	return identity, nil
}
