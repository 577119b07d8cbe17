package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meetix.org/internal/ids"
)

var (
	initOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	tokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetix_tokens_issued_total",
			Help: "Session tokens issued, by flow.",
		},
		[]string{"flow"},
	)

	tokenRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetix_token_rejections_total",
			Help: "Bearer tokens rejected by the request authenticator, by reason.",
		},
		[]string{"reason"},
	)

	authorizationDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetix_authorization_denials_total",
			Help: "Actions refused by the event authorization evaluator.",
		},
		[]string{"action"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetix_registrations_total",
			Help: "Event registration attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "meetix_ready",
		Help: "1 when the last readiness check succeeded.",
	})
)

// Init registers all collectors in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			tokensIssued, tokenRejections, authorizationDenials, registrations, ready,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// TokenIssued counts a token minted by login, registration or a profile change.
func TokenIssued(flow string) {
	tokensIssued.WithLabelValues(flow).Inc()
}

// TokenRejected counts a bearer token the authenticator refused.
func TokenRejected(reason string) {
	tokenRejections.WithLabelValues(reason).Inc()
}

// AuthorizationDenied counts a PermissionDenied outcome for action.
func AuthorizationDenied(action string) {
	authorizationDenials.WithLabelValues(action).Inc()
}

// RegistrationAttempted counts a registration outcome: registered, duplicate or full.
func RegistrationAttempted(outcome string) {
	registrations.WithLabelValues(outcome).Inc()
}

// SetReady records the outcome of the latest readiness check.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
		return
	}
	ready.Set(0)
}

// Instrument records RPS, latency and in-flight requests per canonical path.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

// CanonicalPath collapses UUID and ULID path segments to ":id" to bound label cardinality.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if isIdentifier(seg) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isIdentifier(seg string) bool {
	if len(seg) == 36 {
		if _, err := uuid.Parse(seg); err == nil {
			return true
		}
	}
	return ids.Valid(seg)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
