package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"time"

	"meetix.org/internal/admins"
	"meetix.org/internal/auth"
	"meetix.org/internal/coupons"
	"meetix.org/internal/events"
	"meetix.org/internal/obs"
	"meetix.org/internal/participants"
	"meetix.org/internal/users"
)

const serviceName = "meetix-api"

// Pinger is satisfied by the PostgreSQL store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck checks that the database answers. A nil DB (in-memory mode) is always ready.
type ReadinessCheck struct {
	DB Pinger
}

func (rp ReadinessCheck) Check(ctx context.Context) error {
	if rp.DB == nil {
		obs.SetReady(true)
		return nil
	}
	err := rp.DB.Ping(ctx)
	obs.SetReady(err == nil)
	return err
}

// Services are the domain collaborators behind the routes.
type Services struct {
	Auth         *auth.Service
	Users        *users.Service
	Events       *events.Service
	Admins       *admins.Service
	Coupons      *coupons.Service
	Participants *participants.Service
}

// Options tune transport behavior. Zero values fall back to defaults.
type Options struct {
	TokenHeader  string
	MaxBodyBytes int64
	RateBurst    int
	RatePerSec   int
	CORSOrigins  []string

	// TrustedProxies may set X-Forwarded-For; other peers are rate limited by address.
	TrustedProxies []netip.Prefix
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readiness  ReadinessCheck
	version    string
	svc        Services

	tokenHeader  string
	maxBodyBytes int64
	rateBurst    int
	ratePerSec   int
	corsOrigins  []string
	trusted      []netip.Prefix
}

func New(rp ReadinessCheck, version string, svc Services, opts Options) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readiness:    rp,
		version:      version,
		svc:          svc,
		tokenHeader:  opts.TokenHeader,
		maxBodyBytes: opts.MaxBodyBytes,
		rateBurst:    opts.RateBurst,
		ratePerSec:   opts.RatePerSec,
		corsOrigins:  opts.CORSOrigins,
		trusted:      opts.TrustedProxies,
	}
	if a.tokenHeader == "" {
		a.tokenHeader = "Authorization"
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 10
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 5
	}
	a.routes()
	return a
}

func (a *API) routes() {
	// health/ready/info
	a.mux.HandleFunc("GET /{$}", a.Info)
	a.mux.HandleFunc("GET /health", a.Healthz)
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	// credentials share one per-IP limiter
	limiter := newIPLimiter(a.rateBurst, a.ratePerSec, a.trusted)
	a.mux.Handle("POST /auth/login", limiter.wrap(http.HandlerFunc(a.handleLogin)))
	a.mux.Handle("POST /auth/register", limiter.wrap(http.HandlerFunc(a.handleRegister)))
	a.mux.HandleFunc("GET /auth/validate", a.handleValidate)
	a.mux.HandleFunc("POST /auth/logout", a.handleLogout)
	a.mux.HandleFunc("GET /auth/health", a.Healthz)

	a.mux.HandleFunc("GET /users/me", a.handleMe)
	a.mux.HandleFunc("PUT /users/me", a.handleUpdateMe)
	a.mux.HandleFunc("DELETE /users/me", a.handleDeleteMe)
	a.mux.HandleFunc("GET /users", a.handleListUsers)
	a.mux.HandleFunc("GET /users/{id}", a.handleGetUser)

	a.mux.HandleFunc("GET /events", a.handleListEvents)
	a.mux.HandleFunc("GET /events/upcoming", a.handleUpcomingEvents)
	a.mux.HandleFunc("GET /events/{id}", a.handleGetEvent)
	a.mux.HandleFunc("POST /events", a.handleCreateEvent)
	a.mux.HandleFunc("PUT /events/{id}", a.handleUpdateEvent)
	a.mux.HandleFunc("DELETE /events/{id}", a.handleDeleteEvent)

	a.mux.HandleFunc("GET /api/events/{eventId}/admins", a.handleListAdmins)
	a.mux.HandleFunc("POST /api/events/{eventId}/admins/invite", a.handleInviteAdmin)
	a.mux.HandleFunc("POST /api/events/{eventId}/admins/accept", a.handleAcceptInvite)
	a.mux.HandleFunc("DELETE /api/events/{eventId}/admins/decline", a.handleDeclineInvite)
	a.mux.HandleFunc("DELETE /api/events/{eventId}/admins/{adminId}", a.handleRemoveAdmin)
	a.mux.HandleFunc("GET /api/events/{eventId}/admins/pending", a.handlePendingInvites)
	a.mux.HandleFunc("GET /api/admins/pending", a.handlePendingInvites)

	a.mux.HandleFunc("POST /api/coupon/event/{eventId}", a.handleCreateCoupon)
	a.mux.HandleFunc("POST /api/coupon/apply", a.handleApplyCoupon)
	a.mux.HandleFunc("GET /api/coupon/event/{eventId}/valid", a.handleValidCoupons)

	a.mux.HandleFunc("POST /api/event-participants/register", a.handleRegisterParticipant)
	a.mux.HandleFunc("DELETE /api/event-participants/cancel", a.handleCancelParticipant)
	a.mux.HandleFunc("POST /api/event-participants/check-in", a.handleCheckIn)
	a.mux.HandleFunc("GET /api/event-participants/is-registered", a.handleIsRegistered)
	a.mux.HandleFunc("GET /api/event-participants/event/{eventId}", a.handleEventParticipants)
	a.mux.HandleFunc("GET /api/event-participants/attended/{eventId}", a.handleAttendedParticipants)
	a.mux.HandleFunc("GET /api/event-participants/user/{userId}", a.handleUserRegistrations)
	a.mux.HandleFunc("GET /api/event-participants/count/{eventId}", a.handleParticipantCount)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
}

// Handler returns the mux wrapped in the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = a.withAuth(h)
	h = obs.Instrument(h)
	h = CORS(h, a.corsOrigins, a.tokenHeader)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readiness.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

var errBodyTooLarge = errors.New("request body too large")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}
