package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/request"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/response"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/service"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/validation"
)

// CalculationHandler handles ad-hoc snapshot calculation requests.
type CalculationHandler struct {
	calculationService *service.CalculationService
}

// NewCalculationHandler creates a new CalculationHandler
func NewCalculationHandler(calculationService *service.CalculationService) *CalculationHandler {
	return &CalculationHandler{
		calculationService: calculationService,
	}
}

// Calculate computes the fixed-weight daily change of the posted holdings.
//
// Endpoint: POST /api/calculate
func (h *CalculationHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req request.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCalculate(req); err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.calculationService.Calculate(r.Context(), req.Holdings())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CalculateDynamic re-derives stock weights from live market values.
//
// Endpoint: POST /api/calculate/dynamic
func (h *CalculationHandler) CalculateDynamic(w http.ResponseWriter, r *http.Request) {
	var req request.DynamicCalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateDynamicCalculate(req); err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.calculationService.CalculateDynamicWeights(r.Context(), req.Holdings())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
