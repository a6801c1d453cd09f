package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/middleware"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/config"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/repository"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/service"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/testutil"
)

// newTestRouter wires the full router over an in-memory database and mock
// price sources, with the API-key guard disabled.
func newTestRouter(t *testing.T, equities *testutil.MockEquityClient, funds *testutil.MockFundClient) (http.Handler, *service.PortfolioService) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	source := testutil.NewTestPriceSource(equities, funds)
	repo := repository.NewPortfolioRepository(db)
	portfolioService := service.NewPortfolioService(repo)

	guard, err := middleware.NewAPIKeyGuard("", "", time.Minute)
	if err != nil {
		t.Fatalf("NewAPIKeyGuard returned unexpected error: %v", err)
	}

	router := api.NewRouter(
		service.NewSystemService(db),
		portfolioService,
		service.NewCalculationService(source),
		service.NewHistoryService(source),
		guard,
		&config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"*"}}},
	)
	return router, portfolioService
}

func doRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func savedPortfolio(t *testing.T, svc *service.PortfolioService, name string, sets ...model.HoldingsSet) {
	t.Helper()
	testutil.SaveVersions(t, svc, name, sets...)
}

func TestPortfolioEndpoints(t *testing.T) {
	t.Run("save then fetch round-trips", func(t *testing.T) {
		router, _ := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())

		rec := doRequest(router, "POST", "/api/portfolio/", map[string]any{
			"name":   "retirement",
			"stocks": []map[string]any{{"ticker": "THYAO", "weight": 60}},
			"funds":  []map[string]any{{"ticker": "FON", "weight": 40}},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("Save: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = doRequest(router, "GET", "/api/portfolio/retirement", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Get: expected 200, got %d", rec.Code)
		}
		var holdings model.HoldingsSet
		if err := json.Unmarshal(rec.Body.Bytes(), &holdings); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if len(holdings.Stocks) != 1 || holdings.Stocks[0].Ticker != "THYAO" {
			t.Errorf("Unexpected holdings: %+v", holdings)
		}
	})

	t.Run("save rejects an invalid payload with field errors", func(t *testing.T) {
		router, _ := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())

		rec := doRequest(router, "POST", "/api/portfolio/", map[string]any{
			"name":   "",
			"stocks": []map[string]any{{"ticker": "", "weight": -1}},
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
		var body struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if _, ok := body.Details["name"]; !ok {
			t.Errorf("Expected a name field error, got %v", body.Details)
		}
	})

	t.Run("weights accept numeric strings", func(t *testing.T) {
		router, _ := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())

		rec := doRequest(router, "POST", "/api/portfolio/", map[string]any{
			"name":   "p",
			"stocks": []map[string]any{{"ticker": "THYAO", "weight": "60,5"}},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown portfolio is 404", func(t *testing.T) {
		router, _ := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())

		rec := doRequest(router, "GET", "/api/portfolio/nope", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("list returns saved portfolios", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "alpha", testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil))

		rec := doRequest(router, "GET", "/api/portfolio/", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var records []model.PortfolioRecord
		if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if len(records) != 1 || records[0].Name != "alpha" {
			t.Errorf("Unexpected records: %v", records)
		}
	})

	t.Run("delete removes the portfolio", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "doomed", testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil))

		if rec := doRequest(router, "DELETE", "/api/portfolio/doomed", nil); rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if rec := doRequest(router, "DELETE", "/api/portfolio/doomed", nil); rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 on second delete, got %d", rec.Code)
		}
	})

	t.Run("history exposes archived versions with display timestamps", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "p",
			testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil),
			testutil.Holdings([]model.Holding{testutil.Stock("BBB", 100)}, nil),
		)

		rec := doRequest(router, "GET", "/api/portfolio/p/history", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var view service.HistoryView
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if len(view.History) != 1 || view.History[0].DisplayTimestamp == "" {
			t.Errorf("Unexpected history view: %+v", view)
		}
	})

	t.Run("revert without history is a conflict", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "p", testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil))

		rec := doRequest(router, "POST", "/api/portfolio/p/revert", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d", rec.Code)
		}
	})

	t.Run("revert restores the archived allocation", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "p",
			testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil),
			testutil.Holdings([]model.Holding{testutil.Stock("BBB", 100)}, nil),
		)

		if rec := doRequest(router, "POST", "/api/portfolio/p/revert", nil); rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		rec := doRequest(router, "GET", "/api/portfolio/p", nil)
		var holdings model.HoldingsSet
		if err := json.Unmarshal(rec.Body.Bytes(), &holdings); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if holdings.Stocks[0].Ticker != "AAA" {
			t.Errorf("Expected AAA restored, got %+v", holdings)
		}
	})

	t.Run("compare without history is a conflict", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "p", testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil))

		rec := doRequest(router, "GET", "/api/portfolio/p/compare", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d", rec.Code)
		}
	})

	t.Run("compare diffs the two newest versions", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "p",
			testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil),
			testutil.Holdings([]model.Holding{testutil.Stock("BBB", 100)}, nil),
		)

		rec := doRequest(router, "GET", "/api/portfolio/p/compare", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var result model.ComparisonResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if len(result.Comparison) != 2 {
			t.Errorf("Expected 2 comparison rows, got %d", len(result.Comparison))
		}
	})

	t.Run("historical series for a portfolio with prices", func(t *testing.T) {
		equities := testutil.NewMockEquityClient().SetCloses("AAA.IS", testutil.DailyCloses(10, 1.0))
		router, svc := newTestRouter(t, equities, testutil.NewMockFundClient())
		savedPortfolio(t, svc, "p", testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil))

		rec := doRequest(router, "GET", "/api/portfolio/p/historical", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var series model.HistoricalSeries
		if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if len(series.Dates) == 0 || len(series.Dates) != len(series.Returns) {
			t.Errorf("Unexpected series shape: %d dates, %d returns", len(series.Dates), len(series.Returns))
		}
	})

	t.Run("historical without any price data is 404", func(t *testing.T) {
		router, svc := newTestRouter(t, testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		savedPortfolio(t, svc, "p", testutil.Holdings([]model.Holding{testutil.Stock("AAA", 100)}, nil))

		rec := doRequest(router, "GET", "/api/portfolio/p/historical", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("mutations respect the API-key guard when enabled", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		source := testutil.NewTestPriceSource(testutil.NewMockEquityClient(), testutil.NewMockFundClient())
		guard, _ := middleware.NewAPIKeyGuard("secret", "", time.Minute)
		router := api.NewRouter(
			service.NewSystemService(db),
			service.NewPortfolioService(repository.NewPortfolioRepository(db)),
			service.NewCalculationService(source),
			service.NewHistoryService(source),
			guard,
			&config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"*"}}},
		)

		rec := doRequest(router, "POST", "/api/portfolio/", map[string]any{
			"name":   "p",
			"stocks": []map[string]any{{"ticker": "THYAO", "weight": 100}},
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 without a key, got %d", rec.Code)
		}

		// Reads stay open.
		if rec := doRequest(router, "GET", "/api/portfolio/", nil); rec.Code != http.StatusOK {
			t.Errorf("Expected open read, got %d", rec.Code)
		}
	})
}
