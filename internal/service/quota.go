package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/teresa-solution/booking-tenant-service/internal/apperror"
	"github.com/teresa-solution/booking-tenant-service/internal/model"
	"github.com/teresa-solution/booking-tenant-service/internal/tenant"
)

// SettingsReader resolves named tenant settings.
type SettingsReader interface {
	GetValue(ctx context.Context, tenantSlug, key string) (string, bool)
}

// ActiveCounter counts live rows in a tenant schema.
type ActiveCounter interface {
	CountActiveUsers(ctx context.Context, slug string) (int64, error)
	CountActiveUnits(ctx context.Context, slug string) (int64, error)
}

// PlanLimits are the ceilings of one plan. Nil means unlimited.
type PlanLimits struct {
	MaxUsers    *int
	MaxUnits    *int
	HorizonDays *int
}

// PlanRegistry resolves plan codes to their ceilings.
type PlanRegistry interface {
	// Limits returns the ceilings for code; ok is false for unknown codes.
	Limits(code string) (PlanLimits, bool)
}

type staticPlanRegistry map[string]PlanLimits

func intPtr(n int) *int { return &n }

// NewStaticPlanRegistry returns the built-in plan table.
func NewStaticPlanRegistry() PlanRegistry {
	return staticPlanRegistry{
		"free":       {MaxUsers: intPtr(2), MaxUnits: intPtr(1), HorizonDays: intPtr(30)},
		"basic":      {MaxUsers: intPtr(5), MaxUnits: intPtr(2), HorizonDays: intPtr(90)},
		"pro":        {MaxUsers: intPtr(20), MaxUnits: intPtr(5), HorizonDays: intPtr(180)},
		"enterprise": {},
	}
}

func (r staticPlanRegistry) Limits(code string) (PlanLimits, bool) {
	l, ok := r[strings.ToLower(strings.TrimSpace(code))]
	return l, ok
}

// QuotaService resolves effective plan quotas and counts the resources they
// limit. Comparing counts to bounds is left to the caller.
type QuotaService struct {
	settings SettingsReader
	counter  ActiveCounter
	plans    PlanRegistry
}

func NewQuotaService(settings SettingsReader, counter ActiveCounter, plans PlanRegistry) *QuotaService {
	return &QuotaService{settings: settings, counter: counter, plans: plans}
}

// GetEffectiveQuotas combines the tenant's plan ceilings with its setting
// overrides; an override may tighten a ceiling but never raise it. A blank
// tenant is unbounded.
func (q *QuotaService) GetEffectiveQuotas(ctx context.Context, tenantSlug string) model.QuotaSnapshot {
	slug := tenant.Normalize(tenantSlug)
	if slug == "" {
		return model.Unbounded()
	}

	var plan PlanLimits
	if code, ok := q.settings.GetValue(ctx, slug, SettingPlan); ok {
		plan, _ = q.plans.Limits(code)
	}

	snap := model.QuotaSnapshot{
		MaxUsers: tighter(q.nonNegative(ctx, slug, SettingMaxUsers), plan.MaxUsers),
		MaxUnits: tighter(q.nonNegative(ctx, slug, SettingMaxUnits), plan.MaxUnits),
	}
	if h := tighter(q.positive(ctx, slug, SettingHorizonDays), plan.HorizonDays); h != nil {
		snap.AvailabilityHorizonDays = *h
	} else {
		snap.AvailabilityHorizonDays = model.UnboundedHorizon
	}
	return snap
}

// CountActiveUsers counts the tenant's users that are not soft-deleted.
// Failures propagate since the count gates writes.
func (q *QuotaService) CountActiveUsers(ctx context.Context, tenantSlug string) (int64, error) {
	return q.count(ctx, "quota.CountActiveUsers", tenantSlug, q.counter.CountActiveUsers)
}

// CountActiveUnits counts the tenant's units that are not soft-deleted.
func (q *QuotaService) CountActiveUnits(ctx context.Context, tenantSlug string) (int64, error) {
	return q.count(ctx, "quota.CountActiveUnits", tenantSlug, q.counter.CountActiveUnits)
}

func (q *QuotaService) count(ctx context.Context, op, tenantSlug string, fn func(context.Context, string) (int64, error)) (int64, error) {
	slug := tenant.Normalize(tenantSlug)
	if slug == "" {
		return 0, apperror.Invalid(op, "tenant is required")
	}
	n, err := fn(ctx, slug)
	if err != nil {
		return 0, apperror.Internal(op, fmt.Errorf("tenant %s: %w", slug, err))
	}
	return n, nil
}

func (q *QuotaService) nonNegative(ctx context.Context, slug, key string) *int {
	n, ok := q.intSetting(ctx, slug, key)
	if !ok || n < 0 {
		return nil
	}
	return &n
}

func (q *QuotaService) positive(ctx context.Context, slug, key string) *int {
	n, ok := q.intSetting(ctx, slug, key)
	if !ok || n <= 0 {
		return nil
	}
	return &n
}

func (q *QuotaService) intSetting(ctx context.Context, slug, key string) (int, bool) {
	raw, ok := q.settings.GetValue(ctx, slug, key)
	raw = strings.TrimSpace(raw)
	if !ok || !isDecimal(raw) {
		return 0, false
	}
	// cast infers the base from prefixes, so leading zeros would read as octal.
	digits := strings.TrimLeft(raw, "0")
	if digits == "" {
		digits = "0"
	}
	n, err := cast.ToIntE(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isDecimal reports whether s is a non-empty run of ASCII digits.
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// tighter returns the smaller of two optional bounds.
func tighter(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a < *b:
		return a
	default:
		return b
	}
}
