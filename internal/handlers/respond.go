package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"vibely/internal/services"
	"vibely/pkg/logger"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Encode response error: %v", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps a service error onto its HTTP status. Unexpected errors are
// logged with op and reported as 500 without detail.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("%s error: %v", op, err)
		jsonError(w, status, "internal server error")
		return
	}
	logger.Debug("%s: %v", op, err)
	jsonError(w, status, publicMessage(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage strips the sentinel prefix, leaving "user not found" style text.
func publicMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		services.ErrInvalid, services.ErrUnauthorized, services.ErrForbidden,
		services.ErrNotFound, services.ErrConflict, services.ErrUnavailable,
	} {
		prefix := sentinel.Error() + ": "
		if i := strings.Index(msg, prefix); i >= 0 {
			detail := msg[i+len(prefix):]
			if errors.Is(err, services.ErrNotFound) {
				return detail + " not found"
			}
			return detail
		}
	}
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}
