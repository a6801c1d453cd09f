package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/request"
)

// Error carries per-field validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}

// ValidateSavePortfolio checks a save request before it reaches the
// service: the name and at least one holding are required, every holding
// needs a ticker, and weights and quantities must be well-formed numbers.
// Note that weight sums are deliberately not validated; fixed-weight mode
// passes totals through as given.
func ValidateSavePortfolio(req request.SavePortfolioRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	} else if len(req.Name) > 100 {
		errors["name"] = "name must be 100 characters or less"
	}

	if len(req.Stocks) == 0 && len(req.Funds) == 0 {
		errors["holdings"] = "at least one stock or fund is required"
	}

	validateHoldingPayloads(errors, "stocks", req.Stocks)
	validateHoldingPayloads(errors, "funds", req.Funds)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateCalculate checks an ad-hoc calculation request.
func ValidateCalculate(req request.CalculateRequest) error {
	errors := make(map[string]string)

	if len(req.Stocks) == 0 && len(req.Funds) == 0 {
		errors["holdings"] = "at least one stock or fund is required"
	}

	validateHoldingPayloads(errors, "stocks", req.Stocks)
	validateHoldingPayloads(errors, "funds", req.Funds)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateDynamicCalculate checks a dynamic-weight recalculation request.
func ValidateDynamicCalculate(req request.DynamicCalculateRequest) error {
	errors := make(map[string]string)

	if len(req.Stocks) == 0 {
		errors["stocks"] = "at least one stock is required"
	}

	validateHoldingPayloads(errors, "stocks", req.Stocks)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func validateHoldingPayloads(errors map[string]string, field string, payloads []request.HoldingPayload) {
	for i, p := range payloads {
		key := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(p.Ticker) == "" {
			errors[key] = "ticker is required"
			continue
		}
		w := p.Weight.Float()
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			errors[key] = "weight must be a non-negative number"
			continue
		}
		if p.Quantity != nil {
			q := p.Quantity.Float()
			if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
				errors[key] = "quantity must be a non-negative number"
			}
		}
	}
}
