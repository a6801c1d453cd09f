package request

import (
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
)

// HoldingPayload is one stock or fund line as sent by clients. Weight and
// Quantity tolerate string-encoded numbers; Market defaults to domestic.
type HoldingPayload struct {
	Ticker   string     `json:"ticker"`
	Weight   FlexFloat  `json:"weight"`
	Quantity *FlexFloat `json:"quantity,omitempty"`
	Market   string     `json:"market,omitempty"`
}

// SavePortfolioRequest represents the request body for saving a portfolio.
type SavePortfolioRequest struct {
	Name     string           `json:"name"`
	Stocks   []HoldingPayload `json:"stocks"`
	Funds    []HoldingPayload `json:"funds"`
	Category string           `json:"category,omitempty"`
}

// CalculateRequest represents the request body for a fixed-weight snapshot
// calculation over ad-hoc holdings.
type CalculateRequest struct {
	Stocks []HoldingPayload `json:"stocks"`
	Funds  []HoldingPayload `json:"funds"`
}

// DynamicCalculateRequest represents the request body for a dynamic-weight
// recalculation.
type DynamicCalculateRequest struct {
	Stocks []HoldingPayload `json:"stocks"`
}

// Holdings converts the payload lists into the domain holdings set.
func (r SavePortfolioRequest) Holdings() model.HoldingsSet {
	return model.HoldingsSet{
		Name:     r.Name,
		Stocks:   toHoldings(r.Stocks),
		Funds:    toHoldings(r.Funds),
		Category: r.Category,
	}
}

// Holdings converts the payload lists into the domain holdings set.
func (r CalculateRequest) Holdings() model.HoldingsSet {
	return model.HoldingsSet{
		Stocks: toHoldings(r.Stocks),
		Funds:  toHoldings(r.Funds),
	}
}

// Holdings converts the stock payloads into domain holdings.
func (r DynamicCalculateRequest) Holdings() []model.Holding {
	return toHoldings(r.Stocks)
}

func toHoldings(payloads []HoldingPayload) []model.Holding {
	holdings := make([]model.Holding, 0, len(payloads))
	for _, p := range payloads {
		h := model.Holding{
			Ticker: p.Ticker,
			Weight: p.Weight.Float(),
			Market: model.Market(p.Market),
		}
		if p.Quantity != nil {
			q := p.Quantity.Float()
			h.Quantity = &q
		}
		holdings = append(holdings, h)
	}
	return holdings
}
