package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskhub/api/internal/core/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps a domain error onto an HTTP status and a stable machine
// code. STORAGE_UNAVAILABLE is the only code clients may retry on.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		// Server-side detail goes to the log, not to the client.
		slog.Error("request failed", "error", err)
		message = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Message: message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND"
	case errors.Is(err, domain.ErrBadCredential):
		return http.StatusUnauthorized, "BAD_CREDENTIAL"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_ALREADY_REGISTERED"
	case errors.Is(err, domain.ErrFederatedEmailConflict):
		return http.StatusConflict, "OAUTH2_EMAIL_ALREADY_REGISTERED"
	case errors.Is(err, domain.ErrInvalidFederatedCredential):
		return http.StatusUnauthorized, "INVALID_OAUTH2_CREDENTIAL"
	case errors.Is(err, domain.ErrInvalidAccessToken):
		return http.StatusUnauthorized, "INVALID_ACCESS_TOKEN"
	case errors.Is(err, domain.ErrExpiredAccessToken):
		return http.StatusUnauthorized, "EXPIRED_ACCESS_TOKEN"
	case errors.Is(err, domain.ErrExpiredRefreshToken):
		return http.StatusUnauthorized, "EXPIRED_REFRESH_TOKEN"
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
