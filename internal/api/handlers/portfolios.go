package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/request"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/response"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/service"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/validation"
)

// PortfolioHandler handles portfolio lifecycle HTTP requests: list, get,
// save, delete, history, revert, compare and the historical return series.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	historyService   *service.HistoryService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, historyService *service.HistoryService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		historyService:   historyService,
	}
}

// Portfolios lists stored portfolios by id and name.
//
// Endpoint: GET /api/portfolio/
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	records, err := h.portfolioService.GetAll()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// Portfolio returns the current allocation of one portfolio.
//
// Endpoint: GET /api/portfolio/{name}
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	holdings, err := h.portfolioService.Get(name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holdings)
}

// Save stores a new allocation for a portfolio name, archiving the
// previous one into history.
//
// Endpoint: POST /api/portfolio/
func (h *PortfolioHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req request.SavePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateSavePortfolio(req); err != nil {
		respondServiceError(w, err)
		return
	}

	if _, err := h.portfolioService.Save(req.Name, req.Holdings()); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response.SuccessResponse{
		Success: fmt.Sprintf("portfolio %q saved", req.Name),
	})
}

// Delete removes a portfolio and its entire version history.
//
// Endpoint: DELETE /api/portfolio/{name}
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.portfolioService.Delete(name); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response.SuccessResponse{
		Success: fmt.Sprintf("portfolio %q deleted", name),
	})
}

// History returns the versioned container with display timestamps.
//
// Endpoint: GET /api/portfolio/{name}/history
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	view, err := h.portfolioService.History(name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Revert promotes the most recent archived version back to current.
//
// Endpoint: POST /api/portfolio/{name}/revert
func (h *PortfolioHandler) Revert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if _, err := h.portfolioService.Revert(name); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response.SuccessResponse{
		Success: fmt.Sprintf("portfolio %q reverted to previous version", name),
	})
}

// Compare diffs the current allocation against the most recent archived
// version.
//
// Endpoint: GET /api/portfolio/{name}/compare
func (h *PortfolioHandler) Compare(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	result, err := h.portfolioService.Compare(name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Historical returns the 30-point daily-return series of a portfolio,
// applying each version's weights over its validity interval.
//
// Endpoint: GET /api/portfolio/{name}/historical
func (h *PortfolioHandler) Historical(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	container, err := h.portfolioService.GetContainer(name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	series, err := h.historyService.CalculateHistorical(r.Context(), container)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}
