package httpapi

import (
	"net/http"

	"meetix.org/internal/audit"
	"meetix.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	session, err := a.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{"email": req.Email})
		handleError(w, r, err)
		return
	}
	ctx := auth.ContextWithIdentity(r.Context(), session.Identity)
	_ = audit.LogEvent(ctx, "auth.login.succeeded", map[string]any{"expires_at": session.ExpiresAt})
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.NewIdentity
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	session, err := a.svc.Auth.Register(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	ctx := auth.ContextWithIdentity(r.Context(), session.Identity)
	_ = audit.LogEvent(ctx, "auth.registered", map[string]any{"email": session.Identity.Email})
	writeJSON(w, http.StatusCreated, session)
}

// handleValidate decodes the presented token without consulting storage.
func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	token, err := extractBearerToken(r.Header.Get(a.tokenHeader))
	if err != nil {
		handleError(w, r, auth.ErrNotAuthenticated)
		return
	}
	summary, err := a.svc.Auth.TokenToIdentitySummary(token)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleLogout acknowledges the request. Tokens are stateless and stay valid until they expire.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
