package monitoring

import (
	"github.com/rs/zerolog/log"
)

// Alert reports an operator-facing problem. It logs at error level with an
// "alert" field that log-based alerting matches on.
func Alert(message string, labels map[string]string) {
	fields := make(map[string]interface{}, len(labels))
	for k, v := range labels {
		fields[k] = v
	}
	log.Error().
		Str("alert", message).
		Fields(fields).
		Msg("ALERT: tenant pipeline issue detected")
}
