package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/teresa-solution/booking-tenant-service/internal/apperror"
	"github.com/teresa-solution/booking-tenant-service/internal/i18n"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return v, apperror.Invalid("api.readJSON", "request body too large")
		}
		return v, apperror.Invalid("api.readJSON", "invalid request body")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to write JSON response")
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}

// writeError maps err to a status and a caller-safe message. Internal
// details are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	lang := r.Header.Get("Accept-Language")
	status := statusFor(apperror.Code(err))
	appErr, ok := apperror.As(err)
	if !ok || status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
		writeMessage(w, r, http.StatusInternalServerError, i18n.Sprintf(lang, i18n.InternalError))
		return
	}

	msg := appErr.Msg
	if appErr.Key != "" {
		msg = i18n.Sprintf(lang, appErr.Key, appErr.Args...)
	}
	hlog.FromRequest(r).Warn().Err(err).Int("status", status).Msg("Request rejected")
	writeMessage(w, r, status, msg)
}

func statusFor(code string) int {
	switch code {
	case apperror.EInvalid, apperror.EBusinessRule:
		return http.StatusBadRequest
	case apperror.ENotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
