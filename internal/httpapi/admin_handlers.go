package httpapi

import "net/http"

type inviteRequest struct {
	Email string `json:"email"`
}

func (a *API) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	views, err := a.svc.Admins.ListAdmins(r.Context(), canonicalID(r.PathValue("eventId")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(views))
}

func (a *API) handleInviteAdmin(w http.ResponseWriter, r *http.Request) {
	eventID := canonicalID(r.PathValue("eventId"))
	if err := a.svc.Admins.AuthorizeInvite(r.Context(), eventID); err != nil {
		handleError(w, r, err)
		return
	}
	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	view, err := a.svc.Admins.Invite(r.Context(), eventID, req.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (a *API) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.Admins.Accept(r.Context(), canonicalID(r.PathValue("eventId")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleDeclineInvite(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Admins.Decline(r.Context(), canonicalID(r.PathValue("eventId"))); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	eventID := canonicalID(r.PathValue("eventId"))
	adminID := canonicalID(r.PathValue("adminId"))
	if err := a.svc.Admins.Remove(r.Context(), eventID, adminID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePendingInvites(w http.ResponseWriter, r *http.Request) {
	views, err := a.svc.Admins.ListPending(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(views))
}
