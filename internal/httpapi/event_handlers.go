package httpapi

import (
	"net/http"
	"strings"

	"meetix.org/internal/events"
)

func (a *API) handleListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		list []events.Event
		err  error
	)
	if organizer := strings.TrimSpace(r.URL.Query().Get("organizer")); organizer != "" {
		list, err = a.svc.Events.ListByOrganizer(r.Context(), canonicalID(organizer))
	} else {
		list, err = a.svc.Events.List(r.Context())
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (a *API) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Events.ListUpcoming(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (a *API) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := a.svc.Events.Get(r.Context(), canonicalID(r.PathValue("id")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	e, err := a.svc.Events.Create(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/events/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := canonicalID(r.PathValue("id"))
	if err := a.svc.Events.AuthorizeUpdate(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	e, err := a.svc.Events.Update(r.Context(), id, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Events.Delete(r.Context(), canonicalID(r.PathValue("id"))); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
