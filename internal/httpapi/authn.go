package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"meetix.org/internal/auth"
	"meetix.org/internal/obs"
)

const bearer = "Bearer "

var (
	errMissingToken = errors.New("missing bearer token")
	errBadScheme    = errors.New("invalid authorization scheme")
)

var publicPaths = []string{
	"/",
	"/health",
	"/healthz",
	"/readyz",
	"/metrics",
	"/auth",
}

var publicPrefixes = []string{
	"/auth/",
}

// withAuth resolves the bearer token of protected routes into an identity on the
// request context. Public routes skip token processing entirely.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicRoute(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(a.tokenHeader))
		if err != nil {
			a.rejectToken(w, r, rejectionReason(err))
			return
		}

		identity, err := a.svc.Auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				a.rejectToken(w, r, rejectionReason(err))
				return
			}
			handleError(w, r, err)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) rejectToken(w http.ResponseWriter, r *http.Request, reason string) {
	obs.TokenRejected(reason)
	obs.Logger().Debug().
		Str("request_id", RequestIDFromContext(r.Context())).
		Str("reason", reason).
		Msg("token_rejected")
	handleError(w, r, auth.ErrNotAuthenticated)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, errMissingToken):
		return "missing"
	case errors.Is(err, errBadScheme):
		return "scheme"
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "signature"
	case errors.Is(err, auth.ErrUnsupportedToken):
		return "unsupported"
	case errors.Is(err, auth.ErrMalformedToken):
		return "malformed"
	default:
		return "unknown_identity"
	}
}

// extractBearerToken requires the exact "Bearer " prefix.
func extractBearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errMissingToken
	}
	if !strings.HasPrefix(header, bearer) {
		return "", errBadScheme
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

// isPublicRoute reports whether a request may proceed without an identity.
// Reading events is public; writing them is not.
func isPublicRoute(method, path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if method == http.MethodGet || method == http.MethodHead {
		return path == "/events" || strings.HasPrefix(path, "/events/")
	}
	return false
}
