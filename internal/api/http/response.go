package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Items    any   `json:"items"`
	Total    int32 `json:"total"`
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors to HTTP status codes. Invariant violations
// are deliberately reported as an opaque internal error: they indicate a bug,
// not a bad request.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr   *domain.ValidationError
		insufficientErr *domain.InsufficientBalanceError
		stateErr        *domain.InvalidStateError
		transitionErr   *domain.InvalidPayoutTransitionError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &insufficientErr),
		errors.Is(err, domain.ErrPayoutInFlight),
		errors.Is(err, domain.ErrDuplicateReference),
		errors.Is(err, domain.ErrAgentInactive):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &stateErr), errors.As(err, &transitionErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		logger.Error("Internal error handling request", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
