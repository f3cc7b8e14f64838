package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInitMetrics_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	InitMetrics(reg)

	TenantsProvisioned.WithLabelValues("success").Inc()
	SettingsCacheLookups.WithLabelValues("hit").Inc()
	TenantGateRejections.WithLabelValues("missing").Inc()

	n, err := testutil.GatherAndCount(reg,
		"tenants_provisioned_total",
		"tenant_settings_cache_lookups_total",
		"tenant_gate_rejections_total",
	)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	// Registering twice logs instead of panicking.
	InitMetrics(reg)
}
