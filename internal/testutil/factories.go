package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/pricing"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/repository"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/service"
)

// Stock builds a stock holding with the given ticker and weight.
func Stock(ticker string, weight float64) model.Holding {
	return model.Holding{Ticker: ticker, Weight: weight}
}

// StockWithQuantity builds a stock holding carrying a quantity, for
// dynamic-weight tests.
func StockWithQuantity(ticker string, quantity float64) model.Holding {
	return model.Holding{Ticker: ticker, Quantity: &quantity}
}

// Fund builds a fund holding with the given code and weight.
func Fund(code string, weight float64) model.Holding {
	return model.Holding{Ticker: code, Weight: weight}
}

// Holdings builds a holdings set from stock and fund lists.
func Holdings(stocks, funds []model.Holding) model.HoldingsSet {
	return model.HoldingsSet{Stocks: stocks, Funds: funds}
}

// NewTestPortfolioService wires a PortfolioService against the test
// database.
func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()
	return service.NewPortfolioService(repository.NewPortfolioRepository(db))
}

// NewTestPriceSource wires a pricing source over mock clients using the
// production domestic suffix.
func NewTestPriceSource(equities *MockEquityClient, funds *MockFundClient) *pricing.Source {
	return pricing.NewSource(equities, funds, ".IS", nil)
}

// SaveVersions saves the given allocations in order under one name,
// advancing time between saves, and returns the service. The last
// element becomes current; earlier ones land in history (newest first).
func SaveVersions(t *testing.T, svc *service.PortfolioService, name string, sets ...model.HoldingsSet) {
	t.Helper()
	for _, set := range sets {
		if _, err := svc.Save(name, set); err != nil {
			t.Fatalf("Save(%q) returned unexpected error: %v", name, err)
		}
		// Distinct archival timestamps keep history ordering unambiguous.
		time.Sleep(2 * time.Millisecond)
	}
}
