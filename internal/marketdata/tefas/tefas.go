// Package tefas implements the fund price source against the TEFAS fund
// history endpoint. It is the "Price Source B" collaborator: queried by
// fund code and a DD-MM-YYYY date range, returning dated NAV records some
// of which may carry a null NAV.
package tefas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	historyURL = "https://www.tefas.gov.tr/api/DB/BindHistoryInfo"

	// DateFormat is the DD-MM-YYYY wire format the endpoint expects.
	DateFormat = "02-01-2006"
)

// NAVRecord is one day of a fund's net asset value. NAV is nil on days the
// fund reported no price; callers must filter those out.
type NAVRecord struct {
	Date time.Time
	NAV  *float64
}

// Client is the interface consumed by the pricing layer; satisfied by
// FundClient and by test mocks.
type Client interface {
	History(ctx context.Context, fundCode string, startDate, endDate time.Time) ([]NAVRecord, error)
}

// FundClient fetches fund NAV history from TEFAS. Requests are bounded by
// the configured timeout.
type FundClient struct {
	httpClient *http.Client
}

// NewFundClient creates a new TEFAS client. A non-positive timeout falls
// back to 10 seconds.
func NewFundClient(timeout time.Duration) *FundClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FundClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// response mirrors the endpoint's JSON envelope. TARIH is a unix-millis
// timestamp serialized as a string; FIYAT may be null.
type response struct {
	Data []struct {
		Date string   `json:"TARIH"`
		Code string   `json:"FONKODU"`
		NAV  *float64 `json:"FIYAT"`
	} `json:"data"`
}

// History fetches the fund's NAV series for an inclusive date range,
// ordered oldest first.
func (c *FundClient) History(ctx context.Context, fundCode string, startDate, endDate time.Time) ([]NAVRecord, error) {
	form := url.Values{}
	form.Set("fontip", "YAT")
	form.Set("fonkod", strings.ToUpper(strings.TrimSpace(fundCode)))
	form.Set("bastarih", startDate.Format(DateFormat))
	form.Set("bittarih", endDate.Format(DateFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, historyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tefas returned status %d for fund %s", resp.StatusCode, fundCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tefas response: %w", err)
	}

	records := make([]NAVRecord, 0, len(parsed.Data))
	for _, row := range parsed.Data {
		date, err := parseWireDate(row.Date)
		if err != nil {
			continue
		}
		records = append(records, NAVRecord{Date: date, NAV: row.NAV})
	}

	// The endpoint returns newest first; flip to oldest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}

// parseWireDate handles both forms seen in the wild: unix milliseconds as a
// string, and DD-MM-YYYY.
func parseWireDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil && millis > 0 {
		return time.UnixMilli(millis).UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse(DateFormat, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ValidNAVs filters out records with a null NAV, preserving order.
func ValidNAVs(records []NAVRecord) []NAVRecord {
	valid := make([]NAVRecord, 0, len(records))
	for _, r := range records {
		if r.NAV != nil {
			valid = append(valid, r)
		}
	}
	return valid
}
