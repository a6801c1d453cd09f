package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/apperrors"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/pricing"
)

const (
	// lookbackDays is the calendar window fetched for historical series.
	// 45 days absorbs weekends and market holidays while still covering
	// the 30 trading points the series is capped to.
	lookbackDays = 45

	// maxSeriesPoints caps the returned series length.
	maxSeriesPoints = 30

	// equityFetchParallelism bounds the concurrent bulk equity fetches.
	equityFetchParallelism = 4
)

const dayKeyFormat = "2006-01-02"

// HistoryService reconstructs a portfolio's daily-return time series across
// version changes: for every historical date it applies the weights of the
// version that was actually in force on that date.
type HistoryService struct {
	source *pricing.Source
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewHistoryService creates a new HistoryService backed by the given price
// source.
func NewHistoryService(source *pricing.Source) *HistoryService {
	return &HistoryService{source: source, now: time.Now}
}

// portfolioVersion is one allocation with the date range it was in force.
type portfolioVersion struct {
	label    string // "current" or the archival timestamp
	start    time.Time
	holdings model.HoldingsSet
}

// seriesAsset is one member of the combined ticker universe.
type seriesAsset struct {
	ticker string
	class  pricing.AssetClass
	market model.Market
}

// CalculateHistorical produces the stitched daily-return series for a
// versioned container over the lookback window.
//
// The algorithm: enumerate versions with their validity starts, fetch one
// combined price table for the union of all tickers, forward-fill it,
// derive per-asset daily returns, weight each date by the version in force
// on it, stitch the segments and cap the result at the most recent 30
// points.
func (s *HistoryService) CalculateHistorical(ctx context.Context, container model.VersionContainer) (model.HistoricalSeries, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	windowStart := today.AddDate(0, 0, -lookbackDays)

	versions := enumerateVersions(container, windowStart)
	if len(versions) == 0 {
		return model.HistoricalSeries{}, apperrors.ErrNoHistoricalData
	}

	universe := tickerUniverse(versions)

	table := s.fetchPriceTable(ctx, universe, windowStart, today)
	if len(table) == 0 {
		return model.HistoricalSeries{}, apperrors.ErrNoHistoricalData
	}

	dates := sortedDates(table)
	forwardFill(table, dates, universe)
	returns := dailyReturns(table, dates)

	segments := s.buildSegments(versions, dates, returns, windowStart, today)

	series := stitch(segments)
	if len(series.Dates) == 0 {
		return model.HistoricalSeries{}, apperrors.ErrNoHistoricalData
	}

	return series, nil
}

// enumerateVersions lists current plus history, newest first by validity
// start. A version's validity begins the moment it became current: for the
// current allocation that is the newest history entry's archival stamp,
// for a history entry the stamp of the next-older entry, and for the
// oldest version the window start.
func enumerateVersions(container model.VersionContainer, windowStart time.Time) []portfolioVersion {
	var versions []portfolioVersion

	if container.Current != nil {
		start := windowStart
		if len(container.History) > 0 && container.History[0].SaveTimestamp != nil {
			start = container.History[0].SaveTimestamp.UTC().Truncate(24 * time.Hour)
		}
		versions = append(versions, portfolioVersion{
			label:    "current",
			start:    start,
			holdings: *container.Current,
		})
	}

	for i, v := range container.History {
		start := windowStart
		if i+1 < len(container.History) && container.History[i+1].SaveTimestamp != nil {
			start = container.History[i+1].SaveTimestamp.UTC().Truncate(24 * time.Hour)
		}
		label := "archived"
		if v.SaveTimestamp != nil {
			label = v.SaveTimestamp.UTC().Format(time.RFC3339)
		}
		versions = append(versions, portfolioVersion{
			label:    label,
			start:    start,
			holdings: v.HoldingsSet,
		})
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].start.After(versions[j].start)
	})

	return versions
}

// tickerUniverse unions the tickers of every version, normalized, with
// cash-like instruments excluded. One combined fetch for this universe
// avoids per-version network round-trips.
func tickerUniverse(versions []portfolioVersion) []seriesAsset {
	seen := make(map[string]bool)
	var universe []seriesAsset

	add := func(h model.Holding, class pricing.AssetClass) {
		norm := pricing.NormalizeTicker(h.Ticker)
		if norm == "" || pricing.IsCashLike(norm) || seen[norm] {
			return
		}
		seen[norm] = true
		universe = append(universe, seriesAsset{ticker: norm, class: class, market: h.Market})
	}

	for _, v := range versions {
		for _, h := range v.holdings.Stocks {
			add(h, pricing.ClassEquity)
		}
		for _, h := range v.holdings.Funds {
			add(h, pricing.ClassFund)
		}
	}

	return universe
}

// fetchPriceTable loads closing prices for the whole universe into a
// date -> ticker -> price table. Equities are fetched concurrently with a
// bounded errgroup; funds individually. A failed asset is logged and left
// out of the table rather than failing the run.
func (s *HistoryService) fetchPriceTable(ctx context.Context, universe []seriesAsset, from, to time.Time) map[string]map[string]float64 {
	table := make(map[string]map[string]float64)
	var mu sync.Mutex

	record := func(ticker string, points []pricing.Point) {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range points {
			key := p.Date.Format(dayKeyFormat)
			if table[key] == nil {
				table[key] = make(map[string]float64)
			}
			table[key][ticker] = p.Price
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(equityFetchParallelism)

	for _, asset := range universe {
		if asset.class != pricing.ClassEquity {
			continue
		}
		asset := asset
		g.Go(func() error {
			lookup := s.source.NewLookup()
			points, err := lookup.ClosingSeries(gctx, asset.ticker, asset.class, asset.market, from, to)
			if err != nil {
				log.Warn().Err(err).Str("ticker", asset.ticker).Msg("historical equity fetch failed")
				return nil
			}
			record(asset.ticker, points)
			return nil
		})
	}
	// Errors are swallowed per-asset above.
	_ = g.Wait()

	lookup := s.source.NewLookup()
	for _, asset := range universe {
		if asset.class != pricing.ClassFund {
			continue
		}
		points, err := lookup.ClosingSeries(ctx, asset.ticker, asset.class, asset.market, from, to)
		if err != nil {
			log.Warn().Err(err).Str("fund", asset.ticker).Msg("historical fund fetch failed")
			continue
		}
		record(asset.ticker, points)
	}

	return table
}

func sortedDates(table map[string]map[string]float64) []string {
	dates := make([]string, 0, len(table))
	for d := range table {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// forwardFill carries each ticker's last seen price over dates it is
// missing, bridging non-trading days across mixed asset calendars. Dates
// before a ticker's first price stay missing.
func forwardFill(table map[string]map[string]float64, dates []string, universe []seriesAsset) {
	for _, asset := range universe {
		var last float64
		var have bool
		for _, d := range dates {
			if price, ok := table[d][asset.ticker]; ok {
				last, have = price, true
				continue
			}
			if have {
				table[d][asset.ticker] = last
			}
		}
	}
}

// dailyReturns computes day-over-day percent change per ticker, keyed the
// same way as the price table.
func dailyReturns(table map[string]map[string]float64, dates []string) map[string]map[string]float64 {
	returns := make(map[string]map[string]float64, len(table))

	for i := 1; i < len(dates); i++ {
		prev, cur := dates[i-1], dates[i]
		for ticker, price := range table[cur] {
			prevPrice, ok := table[prev][ticker]
			if !ok || prevPrice == 0 {
				continue
			}
			if returns[cur] == nil {
				returns[cur] = make(map[string]float64)
			}
			returns[cur][ticker] = (price - prevPrice) / prevPrice * 100
		}
	}

	return returns
}

// buildSegments assigns each date to the version in force on it and
// computes that version's weighted return for the date. Versions whose
// interval is empty (superseded the same day) contribute nothing. The
// returned segments are ordered oldest first.
func (s *HistoryService) buildSegments(versions []portfolioVersion, dates []string, returns map[string]map[string]float64, windowStart, today time.Time) []model.HistoricalSegment {
	var segments []model.HistoricalSegment

	// versions is newest-first; walk oldest-first so segments stitch in
	// time order.
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]

		intervalStart := v.start
		if intervalStart.Before(windowStart) {
			intervalStart = windowStart
		}
		intervalEnd := today
		if i > 0 {
			intervalEnd = versions[i-1].start.AddDate(0, 0, -1)
		}
		if intervalEnd.Before(intervalStart) {
			continue
		}

		weights := versionWeights(v.holdings)

		var points []model.HistoricalPoint
		for _, d := range dates {
			day, err := time.Parse(dayKeyFormat, d)
			if err != nil {
				continue
			}
			if day.Before(intervalStart) || day.After(intervalEnd) {
				continue
			}
			dayReturns, ok := returns[d]
			if !ok || len(dayReturns) == 0 {
				continue
			}

			var total float64
			for ticker, weight := range weights {
				// Tickers absent from the day's data contribute zero,
				// as do cash-like holdings excluded from the table.
				total += weight / 100 * dayReturns[ticker]
			}
			points = append(points, model.HistoricalPoint{Date: d, Return: total})
		}

		if len(points) == 0 {
			continue
		}
		segments = append(segments, model.HistoricalSegment{Label: v.label, Points: points})
	}

	return segments
}

// versionWeights maps a version's normalized tickers to their weights.
// Cash-like tickers keep their weight entry so the allocation still damps
// the total, with a guaranteed zero return.
func versionWeights(holdings model.HoldingsSet) map[string]float64 {
	weights := make(map[string]float64)
	for _, h := range holdings.AllHoldings() {
		weights[pricing.NormalizeTicker(h.Ticker)] += h.Weight
	}
	return weights
}

// stitch flattens the segments into one time-ordered series, caps it at
// the most recent maxSeriesPoints entries and prepends each later segment
// with the closing point of the one before it so chart lines connect.
func stitch(segments []model.HistoricalSegment) model.HistoricalSeries {
	var flat []model.HistoricalPoint
	bySegment := make([]int, 0, len(segments)) // flat index where each segment starts
	for _, seg := range segments {
		bySegment = append(bySegment, len(flat))
		flat = append(flat, seg.Points...)
	}

	if len(flat) > maxSeriesPoints {
		drop := len(flat) - maxSeriesPoints
		flat = flat[drop:]
		for i := range bySegment {
			bySegment[i] -= drop
		}
	}

	series := model.HistoricalSeries{
		Dates:   make([]string, 0, len(flat)),
		Returns: make([]float64, 0, len(flat)),
	}
	for _, p := range flat {
		series.Dates = append(series.Dates, p.Date)
		series.Returns = append(series.Returns, p.Return)
	}

	for i, seg := range segments {
		start := bySegment[i]
		end := len(flat)
		if i+1 < len(segments) {
			end = bySegment[i+1]
		}
		if end <= 0 || start >= len(flat) {
			continue
		}
		if start < 0 {
			start = 0
		}

		points := make([]model.HistoricalPoint, 0, end-start+1)
		if start > 0 {
			// Leading point from the previous segment keeps chart lines
			// connected across version boundaries.
			points = append(points, flat[start-1])
		}
		points = append(points, flat[start:end]...)
		series.Segments = append(series.Segments, model.HistoricalSegment{
			Label:  seg.Label,
			Points: points,
		})
	}

	return series
}
