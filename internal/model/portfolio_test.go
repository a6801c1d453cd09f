package model_test

import (
	"testing"
	"time"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
)

func set(ticker string) model.HoldingsSet {
	return model.HoldingsSet{Stocks: []model.Holding{{Ticker: ticker, Weight: 100}}}
}

func TestVersionContainer_Archive(t *testing.T) {
	t.Run("first save archives nothing", func(t *testing.T) {
		var c model.VersionContainer
		c.Archive(set("AAA"), time.Now())

		if len(c.History) != 0 {
			t.Errorf("Expected empty history, got %d entries", len(c.History))
		}
		if c.Current == nil || c.Current.Stocks[0].Ticker != "AAA" {
			t.Errorf("Expected AAA current, got %+v", c.Current)
		}
	})

	t.Run("subsequent saves stamp and prepend the displaced current", func(t *testing.T) {
		var c model.VersionContainer
		t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		c.Archive(set("AAA"), t0)
		c.Archive(set("BBB"), t0.Add(time.Hour))
		c.Archive(set("CCC"), t0.Add(2*time.Hour))

		if len(c.History) != 2 {
			t.Fatalf("Expected 2 history entries, got %d", len(c.History))
		}
		if c.History[0].Stocks[0].Ticker != "BBB" || c.History[1].Stocks[0].Ticker != "AAA" {
			t.Errorf("Expected newest-first history, got %+v", c.History)
		}
		if c.History[0].SaveTimestamp == nil || !c.History[0].SaveTimestamp.Equal(t0.Add(2*time.Hour)) {
			t.Errorf("Expected the displacement moment stamped, got %v", c.History[0].SaveTimestamp)
		}
	})

	t.Run("history is truncated at the bound", func(t *testing.T) {
		var c model.VersionContainer
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		tickers := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
		for i, ticker := range tickers {
			c.Archive(set(ticker), base.Add(time.Duration(i)*time.Hour))
		}

		if len(c.History) != model.MaxHistoryLength {
			t.Fatalf("Expected history capped at %d, got %d", model.MaxHistoryLength, len(c.History))
		}
		// H is current; history holds G through C, oldest entries dropped.
		for i, want := range []string{"G", "F", "E", "D", "C"} {
			if got := c.History[i].Stocks[0].Ticker; got != want {
				t.Errorf("history[%d]: expected %s, got %s", i, want, got)
			}
		}
	})
}

func TestVersionContainer_PopHistory(t *testing.T) {
	var c model.VersionContainer
	base := time.Now()
	c.Archive(set("AAA"), base)
	c.Archive(set("BBB"), base.Add(time.Hour))

	head, ok := c.PopHistory()
	if !ok {
		t.Fatal("Expected a history entry to pop")
	}
	if head.Stocks[0].Ticker != "AAA" {
		t.Errorf("Expected AAA popped, got %+v", head)
	}
	if _, ok := c.PopHistory(); ok {
		t.Error("Expected empty history after pop")
	}
}

func TestHoldingsSet(t *testing.T) {
	if !(model.HoldingsSet{}).IsEmpty() {
		t.Error("Expected an empty set to report empty")
	}
	s := model.HoldingsSet{
		Stocks: []model.Holding{{Ticker: "AAA"}},
		Funds:  []model.Holding{{Ticker: "FON"}},
	}
	if s.IsEmpty() {
		t.Error("Expected a populated set to report non-empty")
	}
	if all := s.AllHoldings(); len(all) != 2 || all[0].Ticker != "AAA" || all[1].Ticker != "FON" {
		t.Errorf("Unexpected AllHoldings: %+v", all)
	}
}

func TestHolding_NormalizedTicker(t *testing.T) {
	h := model.Holding{Ticker: "  thyao "}
	if got := h.NormalizedTicker(); got != "THYAO" {
		t.Errorf("Expected THYAO, got %q", got)
	}
}
