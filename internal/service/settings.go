package service

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/booking-tenant-service/internal/cache"
	"github.com/teresa-solution/booking-tenant-service/internal/monitoring"
	"github.com/teresa-solution/booking-tenant-service/internal/store"
	"github.com/teresa-solution/booking-tenant-service/internal/tenant"
)

// DefaultSettingsTTL is how long a loaded settings snapshot stays fresh.
const DefaultSettingsTTL = 60 * time.Second

// Setting keys read by the pipeline.
const (
	SettingMaxUsers        = "max_users"
	SettingMaxUnits        = "max_units"
	SettingHorizonDays     = "availability_horizon_days"
	SettingPlan            = "plan"
	SettingTimeZone        = "time_zone"
	settingsCacheKeyPrefix = "tenant-settings:"
)

// SettingsLoader reads the raw settings rows of one tenant schema.
type SettingsLoader interface {
	LoadSettings(ctx context.Context, slug string) ([]store.Setting, error)
}

// SettingsStore is a read-through cache over each tenant's settings table.
// A tenant's whole table is loaded on a miss and kept for one TTL window.
type SettingsStore struct {
	loader SettingsLoader
	cache  cache.Cache
	clock  clock.Clock
	ttl    time.Duration
}

// NewSettingsStore creates a SettingsStore. A non-positive ttl uses DefaultSettingsTTL.
func NewSettingsStore(loader SettingsLoader, c cache.Cache, clk clock.Clock, ttl time.Duration) *SettingsStore {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	return &SettingsStore{loader: loader, cache: c, clock: clk, ttl: ttl}
}

// GetValue returns the tenant's value for key. Keys match case-insensitively.
// Blank tenant or key is always absent.
func (s *SettingsStore) GetValue(ctx context.Context, tenantSlug, key string) (string, bool) {
	slug := tenant.Normalize(tenantSlug)
	key = strings.TrimSpace(key)
	if slug == "" || key == "" {
		return "", false
	}
	return s.snapshot(ctx, slug).Lookup(strings.ToLower(key))
}

func (s *SettingsStore) snapshot(ctx context.Context, slug string) cache.Snapshot {
	snap, hit := cache.GetOrLoad(ctx, s.cache, s.clock, settingsCacheKeyPrefix+slug, s.ttl,
		func(ctx context.Context) map[string]string { return s.load(ctx, slug) })
	if hit {
		monitoring.SettingsCacheLookups.WithLabelValues("hit").Inc()
	} else {
		monitoring.SettingsCacheLookups.WithLabelValues("miss").Inc()
	}
	return snap
}

// load never fails: a tenant whose settings cannot be read has no settings.
func (s *SettingsStore) load(ctx context.Context, slug string) map[string]string {
	rows, err := s.loader.LoadSettings(ctx, slug)
	if err != nil {
		monitoring.SettingsLoadFailures.Inc()
		log.Warn().Err(err).Str("tenant", slug).Msg("Failed to load tenant settings, using empty settings")
		return map[string]string{}
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		k := strings.ToLower(strings.TrimSpace(row.Key))
		if k == "" {
			continue
		}
		if _, seen := values[k]; seen {
			continue
		}
		values[k] = row.Value
	}
	return values
}
