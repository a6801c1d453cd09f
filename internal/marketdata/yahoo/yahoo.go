// Package yahoo implements the equity price source against the Yahoo
// Finance chart API. It is the "Price Source A" collaborator: queried by
// symbol (ticker plus market suffix) for either a short recent close
// history or a ranged close-price series.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client is the interface consumed by the pricing layer; satisfied by
// FinanceClient and by test mocks.
type Client interface {
	RecentCloses(ctx context.Context, symbol string) ([]Close, error)
	ClosesByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) ([]Close, error)
}

// FinanceClient fetches closing prices from the Yahoo Finance chart API.
// Every request is bounded by the configured timeout so an unreachable
// source degrades a single asset instead of hanging the calculation.
type FinanceClient struct {
	httpClient *http.Client
}

// NewFinanceClient creates a new Yahoo Finance client. A non-positive
// timeout falls back to 10 seconds.
func NewFinanceClient(timeout time.Duration) *FinanceClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FinanceClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RecentCloses fetches the last 5 trading days of closing prices for a
// symbol, oldest first. Five days gives at least the two closes a daily
// change needs even across a long weekend.
func (c *FinanceClient) RecentCloses(ctx context.Context, symbol string) ([]Close, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=5d", baseURL, symbol)
	return c.queryCloses(ctx, url, symbol)
}

// ClosesByDateRange fetches daily closing prices for a symbol within an
// inclusive date range, oldest first.
func (c *FinanceClient) ClosesByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) ([]Close, error) {
	url := fmt.Sprintf(
		"%s/%s?interval=1d&period1=%d&period2=%d",
		baseURL, symbol, startDate.Unix(), endDate.Unix(),
	)
	return c.queryCloses(ctx, url, symbol)
}

func (c *FinanceClient) queryCloses(ctx context.Context, url, symbol string) ([]Close, error) {
	resp, err := c.query(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	return ParseCloses(resp)
}

// ParseCloses converts a raw chart response into dated closing prices,
// skipping null entries. Dates are truncated to midnight UTC.
func ParseCloses(resp Response) ([]Close, error) {
	result := resp.Chart.Result[0]

	if len(result.Timestamp) == 0 {
		return nil, fmt.Errorf("no price data returned")
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no close prices returned")
	}
	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return nil, fmt.Errorf("mismatched data lengths")
	}

	closes := make([]Close, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil {
			continue
		}
		closes = append(closes, Close{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Price: *quote.Close[i],
		})
	}

	return closes, nil
}

// query executes the HTTP request and decodes the chart response. The
// User-Agent header mimics a browser; Yahoo rejects default Go clients.
func (c *FinanceClient) query(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s", *response.Chart.Error)
	}

	return response, nil
}
