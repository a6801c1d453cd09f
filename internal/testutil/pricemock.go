package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/marketdata/tefas"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/marketdata/yahoo"
)

// MockEquityClient is an in-memory yahoo.Client. Closing series are
// registered per symbol (suffix included); every query increments
// CallCount so tests can assert how many lookups actually happened.
type MockEquityClient struct {
	mu        sync.Mutex
	closes    map[string][]yahoo.Close
	err       error
	CallCount int
}

// NewMockEquityClient creates an empty mock equity source.
func NewMockEquityClient() *MockEquityClient {
	return &MockEquityClient{closes: make(map[string][]yahoo.Close)}
}

// SetCloses registers the closing series returned for a symbol.
func (m *MockEquityClient) SetCloses(symbol string, closes []yahoo.Close) *MockEquityClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes[symbol] = closes
	return m
}

// SetDailyChange registers two closes for a symbol such that the resulting
// day-over-day change is exactly changePercent.
func (m *MockEquityClient) SetDailyChange(symbol string, changePercent float64) *MockEquityClient {
	base := 100.0
	yesterday := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	return m.SetCloses(symbol, []yahoo.Close{
		{Date: yesterday.AddDate(0, 0, -1), Price: base},
		{Date: yesterday, Price: base * (1 + changePercent/100)},
	})
}

// SetLastClose registers a two-point series whose most recent close is
// price, for dynamic-weight tests.
func (m *MockEquityClient) SetLastClose(symbol string, price float64) *MockEquityClient {
	yesterday := DaysAgo(1)
	return m.SetCloses(symbol, []yahoo.Close{
		{Date: yesterday.AddDate(0, 0, -1), Price: price},
		{Date: yesterday, Price: price},
	})
}

// WithError makes every query fail with err.
func (m *MockEquityClient) WithError(err error) *MockEquityClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// RecentCloses implements yahoo.Client.
func (m *MockEquityClient) RecentCloses(_ context.Context, symbol string) ([]yahoo.Close, error) {
	return m.lookup(symbol, time.Time{}, time.Time{})
}

// ClosesByDateRange implements yahoo.Client, filtering the registered
// series to the requested range.
func (m *MockEquityClient) ClosesByDateRange(_ context.Context, symbol string, startDate, endDate time.Time) ([]yahoo.Close, error) {
	return m.lookup(symbol, startDate, endDate)
}

func (m *MockEquityClient) lookup(symbol string, startDate, endDate time.Time) ([]yahoo.Close, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount++

	if m.err != nil {
		return nil, m.err
	}
	closes, ok := m.closes[symbol]
	if !ok {
		return nil, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	if startDate.IsZero() {
		return closes, nil
	}
	var filtered []yahoo.Close
	for _, c := range closes {
		if c.Date.Before(startDate) || c.Date.After(endDate) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered, nil
}

// MockFundClient is an in-memory tefas.Client with the same call counting.
type MockFundClient struct {
	mu        sync.Mutex
	records   map[string][]tefas.NAVRecord
	err       error
	CallCount int
}

// NewMockFundClient creates an empty mock fund source.
func NewMockFundClient() *MockFundClient {
	return &MockFundClient{records: make(map[string][]tefas.NAVRecord)}
}

// SetHistory registers the NAV series returned for a fund code.
func (m *MockFundClient) SetHistory(fundCode string, records []tefas.NAVRecord) *MockFundClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[fundCode] = records
	return m
}

// WithError makes every query fail with err.
func (m *MockFundClient) WithError(err error) *MockFundClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// History implements tefas.Client, filtering the registered series to the
// requested range.
func (m *MockFundClient) History(_ context.Context, fundCode string, startDate, endDate time.Time) ([]tefas.NAVRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount++

	if m.err != nil {
		return nil, m.err
	}
	records, ok := m.records[fundCode]
	if !ok {
		return nil, fmt.Errorf("no data for fund %s", fundCode)
	}
	var filtered []tefas.NAVRecord
	for _, r := range records {
		if r.Date.Before(startDate) || r.Date.After(endDate) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// DailyCloses builds a closing series over the last days calendar days
// with a fixed day-over-day change, oldest first.
func DailyCloses(days int, changePercent float64) []yahoo.Close {
	var closes []yahoo.Close
	price := 100.0
	for n := days; n >= 0; n-- {
		closes = append(closes, yahoo.Close{Date: DaysAgo(n), Price: price})
		price *= 1 + changePercent/100
	}
	return closes
}

// NAVSeries builds a NAV history on consecutive recent days ending
// yesterday, oldest value first.
func NAVSeries(values ...float64) []tefas.NAVRecord {
	records := make([]tefas.NAVRecord, len(values))
	for i := range values {
		records[i] = tefas.NAVRecord{
			Date: DaysAgo(len(values) - i),
			NAV:  NAV(values[i]),
		}
	}
	return records
}

// NAV returns a pointer to v, for building NAVRecord fixtures inline.
func NAV(v float64) *float64 {
	return &v
}

// Day truncates a time to midnight UTC, the key granularity used across
// price tables.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// DaysAgo returns midnight UTC n days before now.
func DaysAgo(n int) time.Time {
	return Day(time.Now()).AddDate(0, 0, -n)
}
