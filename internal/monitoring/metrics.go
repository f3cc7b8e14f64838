package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	TenantsProvisioned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenants_provisioned_total",
			Help: "Total number of tenant provisioning attempts by status",
		},
		[]string{"status"},
	)
	ProvisioningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenant_provisioning_duration_seconds",
			Help:    "Duration of tenant provisioning in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // bcrypt dominates
		},
	)
	SettingsCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_settings_cache_lookups_total",
			Help: "Tenant settings snapshot lookups by result",
		},
		[]string{"result"},
	)
	SettingsLoadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_settings_load_failures_total",
			Help: "Tenant settings loads that degraded to empty settings",
		},
	)
	HorizonRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "availability_horizon_rejections_total",
			Help: "Queries rejected for exceeding the tenant availability horizon",
		},
	)
	TenantGateRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_gate_rejections_total",
			Help: "Requests rejected by the tenant header gate by reason",
		},
		[]string{"reason"},
	)
)

// InitMetrics registers the service collectors on reg.
func InitMetrics(reg prometheus.Registerer) {
	collectors := map[string]prometheus.Collector{
		"TenantsProvisioned":   TenantsProvisioned,
		"ProvisioningDuration": ProvisioningDuration,
		"SettingsCacheLookups": SettingsCacheLookups,
		"SettingsLoadFailures": SettingsLoadFailures,
		"HorizonRejections":    HorizonRejections,
		"TenantGateRejections": TenantGateRejections,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Error().Err(err).Msgf("Failed to register %s metric", name)
		}
	}
}
