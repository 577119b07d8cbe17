package httpapi

import (
	"net/http"

	"meetix.org/internal/users"
)

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Users.Me(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUpdateMe answers with the new profile and, after an email change, the
// replacement session the client must switch to.
func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var in users.Update
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	res, err := a.svc.Users.UpdateMe(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Users.DeleteMe(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Users.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Users.Get(r.Context(), canonicalID(r.PathValue("id")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
