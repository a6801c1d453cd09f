package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/response"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/apperrors"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.RespondJSON(w, status, data)
}

// respondServiceError maps service errors onto HTTP statuses. Validation
// failures become 400, missing entities 404, lifecycle conflicts 409, a
// zero portfolio value 422. Anything unrecognized is logged server-side
// and surfaced as a generic 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
	case errors.Is(err, apperrors.ErrEmptyName),
		errors.Is(err, apperrors.ErrEmptyHoldings),
		errors.Is(err, apperrors.ErrInvalidWeight),
		errors.Is(err, apperrors.ErrInvalidQuantity):
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, apperrors.ErrPortfolioNotFound):
		response.RespondError(w, http.StatusNotFound, "portfolio not found", nil)
	case errors.Is(err, apperrors.ErrNoHistory),
		errors.Is(err, apperrors.ErrInsufficientHistory):
		response.RespondError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, apperrors.ErrZeroPortfolioValue):
		response.RespondError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNoHistoricalData):
		response.RespondError(w, http.StatusNotFound, err.Error(), nil)
	default:
		log.Error().Err(err).Msg("internal error")
		response.RespondError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
