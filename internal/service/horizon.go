package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-sql/civil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/teresa-solution/booking-tenant-service/internal/apperror"
	"github.com/teresa-solution/booking-tenant-service/internal/i18n"
	"github.com/teresa-solution/booking-tenant-service/internal/model"
	"github.com/teresa-solution/booking-tenant-service/internal/monitoring"
	"github.com/teresa-solution/booking-tenant-service/internal/tenant"
)

// MaxHorizonDays caps any plan horizon at one hundred years.
const MaxHorizonDays = 36500

// DatedQuery is implemented by queries that must respect the tenant's
// availability horizon. HorizonDate returns the requested date as a
// civil.Date, civil.DateTime, time.Time, string, or a pointer to one; nil or
// an unparseable value skips validation.
type DatedQuery interface {
	HorizonDate() any
}

// QuotaProvider resolves effective quotas.
type QuotaProvider interface {
	GetEffectiveQuotas(ctx context.Context, tenantSlug string) model.QuotaSnapshot
}

// HorizonValidator rejects dated queries beyond today plus the tenant's
// availability horizon, where today is taken in the tenant's time zone.
type HorizonValidator struct {
	quotas   QuotaProvider
	settings SettingsReader
	clock    clock.Clock
}

func NewHorizonValidator(quotas QuotaProvider, settings SettingsReader, clk clock.Clock) *HorizonValidator {
	return &HorizonValidator{quotas: quotas, settings: settings, clock: clk}
}

// Validate checks req once before its handler runs. It never mutates req.
func (v *HorizonValidator) Validate(ctx context.Context, req any) error {
	dq, ok := req.(DatedQuery)
	if !ok {
		return nil
	}
	requested, ok := NormalizeRequestDate(dq.HorizonDate())
	if !ok {
		return nil
	}

	slug, _ := tenant.FromContext(ctx)
	horizon := ClampHorizon(v.quotas.GetEffectiveQuotas(ctx, slug).AvailabilityHorizonDays)
	maxDate := v.MaxDate(ctx, slug, horizon)
	if requested.After(maxDate) {
		monitoring.HorizonRejections.Inc()
		return apperror.BusinessRule("horizon.Validate", i18n.PlanHorizonExceeded,
			fmt.Sprintf("Availability horizon exceeded, max date: %s", maxDate), maxDate.String())
	}
	return nil
}

// MaxDate is the last date a tenant may query with the given horizon.
func (v *HorizonValidator) MaxDate(ctx context.Context, slug string, horizon int) civil.Date {
	return v.Today(ctx, slug).AddDays(horizon)
}

// Today returns the current date in the tenant's configured time zone,
// or in UTC when none is configured or it is unknown.
func (v *HorizonValidator) Today(ctx context.Context, slug string) civil.Date {
	loc := time.UTC
	if name, ok := v.settings.GetValue(ctx, slug, SettingTimeZone); ok {
		name = strings.TrimSpace(name)
		if l, err := time.LoadLocation(name); err == nil && name != "" && !strings.EqualFold(name, "local") {
			loc = l
		} else if name != "" {
			log.Warn().Str("tenant", slug).Str("time_zone", name).Msg("Unknown tenant time zone, using UTC")
		}
	}
	return civil.DateOf(v.clock.Now().In(loc))
}

// ClampHorizon bounds h to [0, MaxHorizonDays].
func ClampHorizon(h int) int {
	return max(0, min(h, MaxHorizonDays))
}

// Intercept runs the horizon check for q and then next. It is the pipeline
// stage query handlers are wrapped in.
func Intercept[Q, R any](ctx context.Context, v *HorizonValidator, q Q, next func(context.Context, Q) (R, error)) (R, error) {
	if err := v.Validate(ctx, q); err != nil {
		var zero R
		return zero, err
	}
	return next(ctx, q)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.DateOnly,
	"2006-01-02T15:04:05",
}

// NormalizeRequestDate converts a requested date to the calendar day it
// names. Instants are converted to UTC before truncation; zone-less values
// are taken as written.
func NormalizeRequestDate(v any) (civil.Date, bool) {
	switch d := v.(type) {
	case nil:
		return civil.Date{}, false
	case civil.Date:
		return d, d.IsValid()
	case *civil.Date:
		if d == nil {
			return civil.Date{}, false
		}
		return *d, d.IsValid()
	case civil.DateTime:
		return d.Date, d.IsValid()
	case *civil.DateTime:
		if d == nil {
			return civil.Date{}, false
		}
		return d.Date, d.IsValid()
	case time.Time:
		if d.IsZero() {
			return civil.Date{}, false
		}
		return civil.DateOf(d.UTC()), true
	case *time.Time:
		if d == nil || d.IsZero() {
			return civil.Date{}, false
		}
		return civil.DateOf(d.UTC()), true
	case string:
		return parseDateString(d)
	case *string:
		if d == nil {
			return civil.Date{}, false
		}
		return parseDateString(*d)
	default:
		return civil.Date{}, false
	}
}

func parseDateString(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t.UTC()), true
		}
	}
	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil || t.IsZero() {
		return civil.Date{}, false
	}
	return civil.DateOf(t.UTC()), true
}
