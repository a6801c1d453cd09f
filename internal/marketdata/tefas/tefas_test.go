package tefas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func newMockedClient(t *testing.T) *FundClient {
	t.Helper()
	client := NewFundClient(5 * time.Second)
	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestHistory(t *testing.T) {
	t.Run("parses unix-millis dates and reverses to oldest first", func(t *testing.T) {
		client := newMockedClient(t)

		day1 := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
		day2 := day1.AddDate(0, 0, 1)
		// Newest first, as the endpoint returns it.
		body := fmt.Sprintf(`{"data": [
			{"TARIH": "%d", "FONKODU": "ABC", "FIYAT": 10.5},
			{"TARIH": "%d", "FONKODU": "ABC", "FIYAT": 10.2}
		]}`, day2.UnixMilli(), day1.UnixMilli())
		httpmock.RegisterResponder("POST", historyURL,
			httpmock.NewStringResponder(200, body))

		records, err := client.History(context.Background(), "abc", day1, day2)
		if err != nil {
			t.Fatalf("History returned unexpected error: %v", err)
		}

		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		if !records[0].Date.Equal(day1) || !records[1].Date.Equal(day2) {
			t.Errorf("Expected oldest first, got %v then %v", records[0].Date, records[1].Date)
		}
		if records[0].NAV == nil || *records[0].NAV != 10.2 {
			t.Errorf("Unexpected first NAV: %v", records[0].NAV)
		}
	})

	t.Run("null NAVs survive parsing for the caller to filter", func(t *testing.T) {
		client := newMockedClient(t)

		day := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
		body := fmt.Sprintf(`{"data": [{"TARIH": "%d", "FONKODU": "ABC", "FIYAT": null}]}`, day.UnixMilli())
		httpmock.RegisterResponder("POST", historyURL,
			httpmock.NewStringResponder(200, body))

		records, err := client.History(context.Background(), "ABC", day, day)
		if err != nil {
			t.Fatalf("History returned unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].NAV != nil {
			t.Errorf("Expected one null-NAV record, got %+v", records)
		}
	})

	t.Run("sends the form the endpoint expects", func(t *testing.T) {
		client := newMockedClient(t)

		var form url.Values
		httpmock.RegisterResponder("POST", historyURL,
			func(req *http.Request) (*http.Response, error) {
				body, _ := io.ReadAll(req.Body)
				form, _ = url.ParseQuery(string(body))
				return httpmock.NewStringResponse(200, `{"data": []}`), nil
			})

		start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
		if _, err := client.History(context.Background(), " abc ", start, end); err != nil {
			t.Fatalf("History returned unexpected error: %v", err)
		}

		if form.Get("fonkod") != "ABC" {
			t.Errorf("Expected fund code uppercased and trimmed, got %q", form.Get("fonkod"))
		}
		if form.Get("bastarih") != "01-04-2024" || form.Get("bittarih") != "15-04-2024" {
			t.Errorf("Unexpected date range: %q .. %q", form.Get("bastarih"), form.Get("bittarih"))
		}
		if form.Get("fontip") != "YAT" {
			t.Errorf("Expected fontip YAT, got %q", form.Get("fontip"))
		}
	})

	t.Run("non-200 status becomes an error", func(t *testing.T) {
		client := newMockedClient(t)

		httpmock.RegisterResponder("POST", historyURL,
			httpmock.NewStringResponder(503, "maintenance"))

		day := time.Now()
		if _, err := client.History(context.Background(), "ABC", day, day); err == nil {
			t.Error("Expected an error for a non-200 response")
		}
	})
}

func TestParseWireDate(t *testing.T) {
	t.Run("DD-MM-YYYY form", func(t *testing.T) {
		got, err := parseWireDate("13-05-2024")
		if err != nil {
			t.Fatalf("parseWireDate returned unexpected error: %v", err)
		}
		want := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := parseWireDate("not a date"); err == nil {
			t.Error("Expected an error")
		}
	})
}

func TestValidNAVs(t *testing.T) {
	v := 10.5
	records := []NAVRecord{
		{Date: time.Now(), NAV: &v},
		{Date: time.Now(), NAV: nil},
	}
	valid := ValidNAVs(records)
	if len(valid) != 1 || valid[0].NAV == nil {
		t.Errorf("Expected one valid record, got %+v", valid)
	}
}
