package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// Error is the body of every non-2xx response. Configuration parse
// failures also carry the offending line.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// Error codes returned in Error.Code. Parse failures use the
// sensorconfig error kind instead.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeValidation    = "validation_error"
	ErrCodeInvalidConfig = "invalid_config"
	ErrCodeUnauthorized  = "unauthorised"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeInternal      = "internal_error"
	ErrCodeUnavailable   = "unavailable"
	ErrCodeRateLimited   = "rate_limited"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeValidationError is for well-formed requests whose content is rejected.
func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeValidation, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeUnavailable reports an optional backend that is switched off.
func writeUnavailable(w http.ResponseWriter, message string) {
	writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// writeConfigError reports configuration text or JSON that failed to decode.
func writeConfigError(w http.ResponseWriter, err error) {
	body := Error{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeInvalidConfig,
		Message: err.Error(),
	}
	var perr *sensorconfig.ParseError
	if errors.As(err, &perr) {
		body.Code = perr.Code()
		body.Line = perr.Line
		body.Raw = perr.Raw
	}
	writeJSON(w, body.Status, body)
}
