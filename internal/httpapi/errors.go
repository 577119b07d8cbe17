package httpapi

import (
	"errors"
	"net/http"

	"meetix.org/internal/admins"
	"meetix.org/internal/auth"
	"meetix.org/internal/coupons"
	"meetix.org/internal/events"
	"meetix.org/internal/obs"
	"meetix.org/internal/participants"
	"meetix.org/internal/users"
)

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, events.ErrInvalidEvent),
		errors.Is(err, admins.ErrInvalidInvite),
		errors.Is(err, admins.ErrSelfInvite),
		errors.Is(err, coupons.ErrInvalidCoupon),
		errors.Is(err, coupons.ErrCouponEventMismatch),
		errors.Is(err, coupons.ErrCouponExpired):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNotAuthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrPermissionDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, events.ErrEventNotFound),
		errors.Is(err, auth.ErrIdentityNotFound),
		errors.Is(err, admins.ErrGrantNotFound),
		errors.Is(err, coupons.ErrCouponNotFound),
		errors.Is(err, participants.ErrRegistrationNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrDuplicateIdentity),
		errors.Is(err, admins.ErrDuplicateGrant),
		errors.Is(err, admins.ErrAlreadyAccepted),
		errors.Is(err, coupons.ErrDuplicateCoupon),
		errors.Is(err, participants.ErrAlreadyRegistered),
		errors.Is(err, participants.ErrEventFull),
		errors.Is(err, participants.ErrAlreadyCheckedIn),
		errors.Is(err, users.ErrOrganizesEvents):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		obs.Logger().Error().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request_failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
