package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSprintf(t *testing.T) {
	assert.Equal(t, "Availability horizon exceeded, max date: 2025-03-31",
		Sprintf("", PlanHorizonExceeded, "2025-03-31"))
	assert.Equal(t, "Horizonte de disponibilidade excedido, data máxima: 2025-03-31",
		Sprintf("pt-BR,pt;q=0.9,en;q=0.8", PlanHorizonExceeded, "2025-03-31"))
	assert.Equal(t, "The X-Tenant header is required.", Sprintf("de-DE", TenantHeaderMissing))
}

func TestMessagesDistinct(t *testing.T) {
	assert.NotEqual(t, Sprintf("en", TenantHeaderMissing), Sprintf("en", TenantHeaderInvalidFormat))
}
