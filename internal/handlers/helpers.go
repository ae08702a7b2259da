package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ternarybob/refero/internal/interfaces"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteDomainError maps sentinel errors to HTTP status codes
func WriteDomainError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, interfaces.ErrJobNotFound),
		errors.Is(err, interfaces.ErrScheduleNotFound),
		errors.Is(err, interfaces.ErrUserNotFound):
		return WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interfaces.ErrNotRetryable):
		return WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, interfaces.ErrInvalidCredentials):
		return WriteError(w, http.StatusUnauthorized, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// GetLimitParam extracts a positive limit query parameter (0 = no limit)
func GetLimitParam(r *http.Request) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			return limit
		}
	}
	return 0
}
