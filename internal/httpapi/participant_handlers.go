package httpapi

import (
	"net/http"

	"meetix.org/internal/participants"
)

func (a *API) handleRegisterParticipant(w http.ResponseWriter, r *http.Request) {
	var req participants.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	req.EventID = canonicalID(req.EventID)
	req.UserID = canonicalID(req.UserID)
	v, err := a.svc.Participants.Register(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (a *API) handleCancelParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, userID := participantQuery(r)
	if err := a.svc.Participants.Cancel(r.Context(), eventID, userID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, userID := participantQuery(r)
	v, err := a.svc.Participants.CheckIn(r.Context(), eventID, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) handleEventParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Participants.ListByEvent(r.Context(), canonicalID(r.PathValue("eventId")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (a *API) handleAttendedParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Participants.ListAttended(r.Context(), canonicalID(r.PathValue("eventId")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (a *API) handleUserRegistrations(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Participants.ListByUser(r.Context(), canonicalID(r.PathValue("userId")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (a *API) handleIsRegistered(w http.ResponseWriter, r *http.Request) {
	eventID, userID := participantQuery(r)
	ok, err := a.svc.Participants.IsRegistered(r.Context(), eventID, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isRegistered": ok})
}

func (a *API) handleParticipantCount(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Participants.Count(r.Context(), canonicalID(r.PathValue("eventId")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// participantQuery reads ?eventId=&userId=. userId may be omitted to mean the caller.
func participantQuery(r *http.Request) (eventID, userID string) {
	q := r.URL.Query()
	return canonicalID(q.Get("eventId")), canonicalID(q.Get("userId"))
}
