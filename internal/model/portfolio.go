package model

import (
	"strings"
	"time"
)

// Market classifies where a holding trades, which controls the symbol
// suffix applied before an equity price lookup.
type Market string

const (
	// MarketDomestic marks holdings on the local exchange. Their tickers
	// receive the exchange suffix before being sent to the price source.
	MarketDomestic Market = "domestic"

	// MarketForeign marks holdings whose tickers are passed through as-is.
	MarketForeign Market = "foreign"
)

// Holding is one line item of a portfolio: a ticker plus its weight as a
// percentage of total portfolio value. Quantity is optional and only used
// in dynamic-weight mode, where the effective weight is re-derived from
// quantity times the live price.
type Holding struct {
	Ticker   string   `json:"ticker"`
	Weight   float64  `json:"weight"`
	Quantity *float64 `json:"quantity,omitempty"`
	Market   Market   `json:"market,omitempty"`
}

// NormalizedTicker returns the ticker trimmed and uppercased, the canonical
// form used as a lookup and comparison key everywhere in the engine.
func (h Holding) NormalizedTicker() string {
	return strings.ToUpper(strings.TrimSpace(h.Ticker))
}

// HoldingsSet is a complete allocation: the stocks and funds that make up a
// portfolio at one point in time. It is either the current allocation or one
// archived snapshot of it.
type HoldingsSet struct {
	Name     string    `json:"name,omitempty"`
	Stocks   []Holding `json:"stocks"`
	Funds    []Holding `json:"funds"`
	Category string    `json:"category,omitempty"`
}

// IsEmpty reports whether the set contains no holdings at all. An empty set
// is never a valid allocation.
func (s HoldingsSet) IsEmpty() bool {
	return len(s.Stocks) == 0 && len(s.Funds) == 0
}

// AllHoldings returns stocks followed by funds as one slice.
func (s HoldingsSet) AllHoldings() []Holding {
	all := make([]Holding, 0, len(s.Stocks)+len(s.Funds))
	all = append(all, s.Stocks...)
	all = append(all, s.Funds...)
	return all
}

// Version is one archived snapshot of an allocation together with the moment
// it stopped being current. SaveTimestamp is zero only transiently, on the
// entry a revert has just promoted back to current.
type Version struct {
	HoldingsSet
	SaveTimestamp *time.Time `json:"save_timestamp,omitempty"`
}

// VersionContainer is the persisted envelope for one portfolio name: the
// mutable current allocation plus a bounded, newest-first history of
// superseded allocations.
type VersionContainer struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Current *HoldingsSet `json:"current"`
	History []Version    `json:"history"`
}

// MaxHistoryLength bounds how many superseded versions are retained per
// portfolio. Older entries are silently dropped on overflow.
const MaxHistoryLength = 5

// Archive stamps the current allocation and pushes it to the front of
// history, truncating to MaxHistoryLength, then installs the replacement.
// A nil current (first save of a new name) archives nothing.
func (c *VersionContainer) Archive(replacement HoldingsSet, now time.Time) {
	if c.Current != nil {
		ts := now
		c.History = append([]Version{{HoldingsSet: *c.Current, SaveTimestamp: &ts}}, c.History...)
		if len(c.History) > MaxHistoryLength {
			c.History = c.History[:MaxHistoryLength]
		}
	}
	c.Current = &replacement
}

// PopHistory removes and returns the most recent history entry. The second
// return is false when there is no history to pop.
func (c *VersionContainer) PopHistory() (Version, bool) {
	if len(c.History) == 0 {
		return Version{}, false
	}
	head := c.History[0]
	c.History = c.History[1:]
	return head, true
}

// PortfolioRecord is the listing view of a stored portfolio.
type PortfolioRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
