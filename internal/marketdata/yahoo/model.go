package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo
// Finance chart API.
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level payload: result objects plus an optional API error.
type Chart struct {
	Result []Result `json:"result"`
	Error  *string  `json:"error"`
}

// Result holds one symbol's metadata, timestamps and price indicators.
type Result struct {
	Meta       Meta       `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

// Meta carries the symbol metadata returned alongside the price arrays.
type Meta struct {
	Currency     string `json:"currency"`
	Symbol       string `json:"symbol"`
	ExchangeName string `json:"exchangeName"`
	ShortName    string `json:"shortName"`
}

// Indicators wraps the parallel OHLCV arrays.
type Indicators struct {
	Quote []Quote `json:"quote"`
}

// Quote holds the parallel price arrays. Entries may be null for days the
// exchange reported no trade, hence the pointer elements.
type Quote struct {
	Open   []*float64 `json:"open"`
	Close  []*float64 `json:"close"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Volume []*int64   `json:"volume"`
}

// Close is one parsed trading day: the date (midnight UTC) and the closing
// price for it.
type Close struct {
	Date  time.Time
	Price float64
}
