package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"meetix.org/internal/coupons"
)

func (a *API) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	eventID := canonicalID(r.PathValue("eventId"))
	if err := a.svc.Coupons.AuthorizeCreate(r.Context(), eventID); err != nil {
		handleError(w, r, err)
		return
	}
	var in coupons.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	c, err := a.svc.Coupons.Create(r.Context(), eventID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req coupons.ApplyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	req.EventID = canonicalID(req.EventID)
	c, err := a.svc.Coupons.Apply(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleValidCoupons(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Coupons.ListValid(r.Context(), canonicalID(r.PathValue("eventId")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// canonicalID lower-cases UUIDs so they compare equal to stored ids. Other values pass through.
func canonicalID(id string) string {
	id = strings.TrimSpace(id)
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
