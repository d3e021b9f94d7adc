package api

import (
	"encoding/json"
	"net/http"
)

// Error is the body of every non-2xx response.
//
// RequestID repeats the X-Request-ID header so a client reporting a failed
// alarm query can be matched to the server's log lines.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes.
const (
	// ErrCodeBadRequest rejects malformed query parameters.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeInternal covers journal read failures and recovered panics.
	ErrCodeInternal = "internal_error"

	// ErrCodeUnavailable reports a feature switched off in configuration,
	// such as the alarm journal.
	ErrCodeUnavailable = "unavailable"
)

// writeJSON writes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes an Error body for r.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(ctxKeyRequestID).(string)
	writeJSON(w, status, Error{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

func writeInternalError(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}
