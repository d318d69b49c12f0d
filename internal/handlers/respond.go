// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ngiletta/taller-be/internal/core/domain"
)

// respondJSON writes data as a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

// respondError writes an error message as a JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps typed domain errors onto HTTP status codes.
// Retryable conflicts get 429 plus a Retry-After hint so clients back off
// before retrying.
func respondDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		stockErr      *domain.InsufficientStockError
		transitionErr *domain.InvalidTransitionError
		conflictErr   *domain.ConflictError
		storageErr    *domain.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &stockErr):
		respondError(w, http.StatusConflict, stockErr.Error())
	case errors.As(err, &transitionErr):
		respondError(w, http.StatusConflict, transitionErr.Error())
	case errors.As(err, &conflictErr):
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusTooManyRequests, conflictErr.Error())
	case errors.As(err, &storageErr):
		respondError(w, http.StatusInternalServerError, "Internal storage error")
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
