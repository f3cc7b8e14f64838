// Package api is the HTTP surface of the tenant pipeline.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/teresa-solution/booking-tenant-service/internal/apperror"
	"github.com/teresa-solution/booking-tenant-service/internal/model"
	"github.com/teresa-solution/booking-tenant-service/internal/service"
	"github.com/teresa-solution/booking-tenant-service/internal/tenant"
)

// SignUpService provisions new tenants.
type SignUpService interface {
	SignUp(ctx context.Context, req model.ProvisionRequest) (uuid.UUID, error)
}

// QuotaReader reports a tenant's effective quotas and current usage.
type QuotaReader interface {
	GetEffectiveQuotas(ctx context.Context, tenantSlug string) model.QuotaSnapshot
	CountActiveUsers(ctx context.Context, tenantSlug string) (int64, error)
	CountActiveUnits(ctx context.Context, tenantSlug string) (int64, error)
}

// Handler serves the public API.
type Handler struct {
	signup  SignUpService
	quotas  QuotaReader
	horizon *service.HorizonValidator
}

func NewHandler(signup SignUpService, quotas QuotaReader, horizon *service.HorizonValidator) *Handler {
	return &Handler{signup: signup, quotas: quotas, horizon: horizon}
}

// Routes builds the router. Every route except sign-up sits behind TenantGate.
func (h *Handler) Routes(logger zerolog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if requestTimeout > 0 {
		r.Use(chimw.Timeout(requestTimeout))
	}
	r.Use(TenantGate)

	r.Post(SignUpPath, h.SignUp)
	r.Get("/api/tenant/quotas", h.GetQuotas)
	r.Get("/api/availability/horizon", h.GetHorizon)
	return r
}

type signUpResponse struct {
	TenantID uuid.UUID `json:"tenantId"`
}

// SignUp handles POST /api/auth/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[model.ProvisionRequest](w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.signup.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, signUpResponse{TenantID: id})
}

type quotaResponse struct {
	model.QuotaSnapshot
	ActiveUsers int64 `json:"activeUsers"`
	ActiveUnits int64 `json:"activeUnits"`
}

// GetQuotas handles GET /api/tenant/quotas.
func (h *Handler) GetQuotas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug, err := tenant.MustFromContext(ctx)
	if err != nil {
		writeError(w, r, apperror.Internal("api.GetQuotas", err))
		return
	}

	resp := quotaResponse{QuotaSnapshot: h.quotas.GetEffectiveQuotas(ctx, slug)}
	if resp.ActiveUsers, err = h.quotas.CountActiveUsers(ctx, slug); err != nil {
		writeError(w, r, err)
		return
	}
	if resp.ActiveUnits, err = h.quotas.CountActiveUnits(ctx, slug); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// horizonQuery asks whether a date is bookable for the current tenant.
type horizonQuery struct {
	Date string
}

func (q horizonQuery) HorizonDate() any { return q.Date }

type horizonResponse struct {
	Date        *civil.Date `json:"date,omitempty"`
	MaxDate     civil.Date  `json:"maxDate"`
	HorizonDays int         `json:"horizonDays"`
}

// GetHorizon handles GET /api/availability/horizon?date=YYYY-MM-DD.
func (h *Handler) GetHorizon(w http.ResponseWriter, r *http.Request) {
	q := horizonQuery{Date: r.URL.Query().Get("date")}
	resp, err := service.Intercept(r.Context(), h.horizon, q, h.describeHorizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) describeHorizon(ctx context.Context, q horizonQuery) (horizonResponse, error) {
	slug, _ := tenant.FromContext(ctx)
	days := service.ClampHorizon(h.quotas.GetEffectiveQuotas(ctx, slug).AvailabilityHorizonDays)
	resp := horizonResponse{
		MaxDate:     h.horizon.MaxDate(ctx, slug, days),
		HorizonDays: days,
	}
	if d, ok := service.NormalizeRequestDate(q.Date); ok {
		resp.Date = &d
	}
	return resp, nil
}
