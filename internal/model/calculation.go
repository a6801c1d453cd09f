package model

// AssetDetail is the per-asset breakdown row of a snapshot calculation.
// When the price lookup for the asset failed, Error is true and DailyChange
// and WeightedImpact are zero; the rest of the portfolio still computes.
type AssetDetail struct {
	Type           string  `json:"type"` // "stock" or "fund"
	Ticker         string  `json:"ticker"`
	Weight         float64 `json:"weight"`
	DailyChange    float64 `json:"daily_change"`
	WeightedImpact float64 `json:"weighted_impact"`
	Error          bool    `json:"error,omitempty"`
	DateRange      string  `json:"date_range,omitempty"` // funds only: the two NAV dates diffed
}

// CalculationResult is the outcome of a fixed-weight snapshot calculation.
type CalculationResult struct {
	TotalChange float64       `json:"total_change"`
	Details     []AssetDetail `json:"details"`
}

// DynamicHolding is one stock row of a dynamic-weight recalculation, with
// the weight re-derived from live market value.
type DynamicHolding struct {
	Ticker   string  `json:"ticker"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Error    bool    `json:"error,omitempty"`
}

// DynamicWeightResult is the outcome of a dynamic-weight recalculation.
type DynamicWeightResult struct {
	Stocks     []DynamicHolding `json:"stocks"`
	TotalValue float64          `json:"total_value"`
}

// HistoricalPoint is one day of the stitched historical return series.
type HistoricalPoint struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Return float64 `json:"return"`
}

// HistoricalSegment groups the slice of the series during which one
// portfolio version's weights were in force, so charts can color per
// version. Label is "current" or the archival timestamp of the version.
type HistoricalSegment struct {
	Label  string            `json:"label"`
	Points []HistoricalPoint `json:"points"`
}

// HistoricalSeries is the full result of a historical calculation: the flat
// date/return series plus the per-version segments it was stitched from.
type HistoricalSeries struct {
	Dates    []string            `json:"dates"`
	Returns  []float64           `json:"returns"`
	Segments []HistoricalSegment `json:"segments"`
}

// WeightComparison is one row of a version comparison: how a ticker's
// weight moved between the previous version and current.
type WeightComparison struct {
	Ticker         string  `json:"ticker"`
	Type           string  `json:"type"` // "stock" or "fund"
	CurrentWeight  float64 `json:"current_weight"`
	PreviousWeight float64 `json:"previous_weight"`
	Change         float64 `json:"change"`
}

// ComparisonResult diffs the current allocation against the most recently
// archived one, sorted by absolute weight change descending.
type ComparisonResult struct {
	Comparison   []WeightComparison `json:"comparison"`
	CurrentDate  string             `json:"current_date"`
	PreviousDate string             `json:"previous_date"`
}
