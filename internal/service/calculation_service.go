package service

import (
	"context"
	"math"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/apperrors"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/pricing"
)

// CalculationService computes snapshot "daily change" results for a set of
// holdings. Each call constructs its own request-scoped price lookup, so
// concurrent calculations never share memoized prices.
type CalculationService struct {
	source *pricing.Source
}

// NewCalculationService creates a new CalculationService backed by the
// given price source.
func NewCalculationService(source *pricing.Source) *CalculationService {
	return &CalculationService{source: source}
}

// Calculate computes the fixed-weight daily change of a holdings set:
// the sum of weight/100 times each asset's daily change. Weights are taken
// as given; the caller is responsible for them summing to ~100. Per-asset
// lookup failures degrade to a flagged zero-change row and never abort the
// batch.
func (s *CalculationService) Calculate(ctx context.Context, holdings model.HoldingsSet) (model.CalculationResult, error) {
	if holdings.IsEmpty() {
		return model.CalculationResult{}, apperrors.ErrEmptyHoldings
	}

	lookup := s.source.NewLookup()

	result := model.CalculationResult{
		Details: make([]model.AssetDetail, 0, len(holdings.Stocks)+len(holdings.Funds)),
	}

	for _, h := range holdings.Stocks {
		detail := assetDetail(ctx, lookup, h, "stock", pricing.ClassEquity)
		result.TotalChange += detail.WeightedImpact
		result.Details = append(result.Details, detail)
	}
	for _, h := range holdings.Funds {
		detail := assetDetail(ctx, lookup, h, "fund", pricing.ClassFund)
		result.TotalChange += detail.WeightedImpact
		result.Details = append(result.Details, detail)
	}

	return result, nil
}

func assetDetail(ctx context.Context, lookup *pricing.Lookup, h model.Holding, assetType string, class pricing.AssetClass) model.AssetDetail {
	change := lookup.DailyChange(ctx, h.Ticker, class, h.Market)

	detail := model.AssetDetail{
		Type:      assetType,
		Ticker:    h.NormalizedTicker(),
		Weight:    h.Weight,
		Error:     change.Unavailable,
		DateRange: change.DateRange,
	}
	if !change.Unavailable {
		detail.DailyChange = change.Percent
		detail.WeightedImpact = h.Weight / 100 * change.Percent
	}
	return detail
}

// CalculateDynamicWeights re-derives stock weights from live market value:
// quantity times last close over total portfolio value. Holdings without a
// positive quantity are skipped. When every lookup fails and the total
// value resolves to zero, the whole calculation fails with
// apperrors.ErrZeroPortfolioValue instead of dividing by zero.
func (s *CalculationService) CalculateDynamicWeights(ctx context.Context, stocks []model.Holding) (model.DynamicWeightResult, error) {
	if len(stocks) == 0 {
		return model.DynamicWeightResult{}, apperrors.ErrEmptyHoldings
	}

	lookup := s.source.NewLookup()

	result := model.DynamicWeightResult{Stocks: make([]model.DynamicHolding, 0, len(stocks))}

	for _, h := range stocks {
		if h.Quantity == nil || *h.Quantity <= 0 {
			continue
		}
		ticker := h.NormalizedTicker()

		price, err := lookup.LastClose(ctx, h.Ticker, h.Market)
		if err != nil {
			result.Stocks = append(result.Stocks, model.DynamicHolding{
				Ticker:   ticker,
				Quantity: *h.Quantity,
				Error:    true,
			})
			continue
		}

		value := *h.Quantity * price
		result.TotalValue += value
		result.Stocks = append(result.Stocks, model.DynamicHolding{
			Ticker:   ticker,
			Quantity: *h.Quantity,
			Price:    round2(price),
			Value:    round2(value),
			Weight:   value, // placeholder, normalized below
		})
	}

	if result.TotalValue <= 0 {
		return model.DynamicWeightResult{}, apperrors.ErrZeroPortfolioValue
	}

	for i := range result.Stocks {
		if result.Stocks[i].Error {
			continue
		}
		result.Stocks[i].Weight = result.Stocks[i].Weight / result.TotalValue * 100
	}
	result.TotalValue = round2(result.TotalValue)

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
