package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/teresa-solution/booking-tenant-service/internal/i18n"
	"github.com/teresa-solution/booking-tenant-service/internal/monitoring"
	"github.com/teresa-solution/booking-tenant-service/internal/tenant"
)

// SignUpPath is the only route served without a tenant header.
const SignUpPath = "/api/auth/signup"

// TenantGate resolves the X-Tenant header into the request context and
// rejects requests without a valid one. POST SignUpPath is exempt.
func TenantGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == SignUpPath {
			next.ServeHTTP(w, r)
			return
		}

		values, present := r.Header[http.CanonicalHeaderKey(tenant.HeaderName)]
		var raw string
		if len(values) > 0 {
			raw = values[0]
		}
		slug, err := tenant.Resolve(raw, present && len(values) > 0)
		if err != nil {
			key, reason := i18n.TenantHeaderInvalidFormat, "invalid"
			if errors.Is(err, tenant.ErrHeaderMissing) {
				key, reason = i18n.TenantHeaderMissing, "missing"
			}
			monitoring.TenantGateRejections.WithLabelValues(reason).Inc()
			hlog.FromRequest(r).Warn().Str("tenant_header", raw).Str("reason", reason).Msg("Tenant header rejected")
			writeMessage(w, r, http.StatusBadRequest, i18n.Sprintf(r.Header.Get("Accept-Language"), key))
			return
		}

		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("tenant", slug)
		})
		next.ServeHTTP(w, r.WithContext(tenant.NewContext(r.Context(), slug)))
	})
}

// accessLog logs one line per request once the response is written.
func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}
