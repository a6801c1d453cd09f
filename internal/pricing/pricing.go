// Package pricing wraps the two external price sources behind one lookup
// interface. It normalizes tickers, applies the exchange suffix, excludes
// cash-like instruments, memoizes lookups within a single calculation and
// resolves fund-of-funds compositions.
//
// Failure policy: a lookup that fails for one asset degrades to a zero
// change with the Unavailable flag set. It never aborts the calculation.
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/marketdata/tefas"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/marketdata/yahoo"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
)

// AssetClass distinguishes the two price sources.
type AssetClass string

const (
	// ClassEquity prices come from the equity chart source, keyed by
	// ticker plus market suffix.
	ClassEquity AssetClass = "equity"

	// ClassFund prices come from the fund NAV source, keyed by fund code
	// over a date range.
	ClassFund AssetClass = "fund"
)

// cashLike tickers always carry zero return and are never sent to a price
// source.
var cashLike = map[string]bool{
	"CASH":    true,
	"BOND":    true,
	"DEPOSIT": true,
	"TLREF":   true,
}

// IsCashLike reports whether the ticker belongs to the reserved zero-return
// set. The ticker is normalized before the check.
func IsCashLike(ticker string) bool {
	return cashLike[NormalizeTicker(ticker)]
}

// NormalizeTicker trims and uppercases a ticker and strips a trailing
// exchange suffix, so "thyao.is " and "THYAO" compare equal across
// portfolio versions.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.LastIndex(t, "."); i > 0 {
		t = t[:i]
	}
	return t
}

// Change is the result of a daily-change lookup for one asset.
type Change struct {
	Percent     float64
	Unavailable bool
	// DateRange describes the two NAV dates diffed, fund lookups only.
	DateRange string
}

// Point is one dated price of a closing series.
type Point struct {
	Date  time.Time
	Price float64
}

// Source bundles the long-lived collaborators of the adapter: the two
// price clients, the exchange suffix and the composition registry. It is
// safe for concurrent use; all per-calculation state lives in Lookup.
type Source struct {
	equities yahoo.Client
	funds    tefas.Client
	suffix   string
	registry *CompositeRegistry
}

// NewSource creates a Source. registry may be nil when no fund-of-funds
// compositions are configured.
func NewSource(equities yahoo.Client, funds tefas.Client, suffix string, registry *CompositeRegistry) *Source {
	if registry == nil {
		registry = NewCompositeRegistry()
	}
	return &Source{
		equities: equities,
		funds:    funds,
		suffix:   suffix,
		registry: registry,
	}
}

// NewLookup creates a request-scoped lookup with a fresh memo. Each
// top-level calculation must use its own Lookup so no stale price leaks
// between requests.
func (s *Source) NewLookup() *Lookup {
	return &Lookup{
		src:    s,
		memo:   make(map[string]Change),
		series: make(map[string][]Point),
	}
}

// Lookup performs price lookups for one calculation. Not safe for
// concurrent use; concurrent calculations each construct their own.
type Lookup struct {
	src    *Source
	memo   map[string]Change
	series map[string][]Point
}

// symbolFor maps a normalized ticker to the symbol sent to the equity
// source. Domestic holdings get the exchange suffix; foreign tickers and
// fund codes pass through.
func (s *Source) symbolFor(ticker string, class AssetClass, market model.Market) string {
	if class == ClassEquity && market != model.MarketForeign {
		return ticker + s.suffix
	}
	return ticker
}

// DailyChange returns the most recent day-over-day percent change for one
// asset. Cash-like tickers short-circuit to zero without any lookup.
// Compositions registered for the ticker are resolved recursively before
// falling back to a direct price lookup.
func (l *Lookup) DailyChange(ctx context.Context, ticker string, class AssetClass, market model.Market) Change {
	norm := NormalizeTicker(ticker)
	if IsCashLike(norm) {
		return Change{}
	}

	if l.src.registry.Has(norm) {
		return l.resolveComposite(ctx, norm, map[string]bool{})
	}

	return l.directChange(ctx, norm, class, market)
}

func (l *Lookup) directChange(ctx context.Context, norm string, class AssetClass, market model.Market) Change {
	key := string(class) + "|" + norm + "|" + string(market)
	if cached, ok := l.memo[key]; ok {
		return cached
	}

	var change Change
	switch class {
	case ClassFund:
		change = l.fundChange(ctx, norm)
	default:
		change = l.equityChange(ctx, norm, market)
	}

	l.memo[key] = change
	return change
}

// equityChange diffs the last two trading-day closes. Fewer than two data
// points is treated as "no change" rather than an error; that is common
// for newly listed or illiquid tickers.
func (l *Lookup) equityChange(ctx context.Context, norm string, market model.Market) Change {
	symbol := l.src.symbolFor(norm, ClassEquity, market)
	closes, err := l.src.equities.RecentCloses(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("ticker", norm).Msg("equity price lookup failed")
		return Change{Unavailable: true}
	}
	if len(closes) < 2 {
		return Change{}
	}

	last := closes[len(closes)-1]
	prev := closes[len(closes)-2]
	if prev.Price == 0 {
		return Change{Unavailable: true}
	}

	return Change{Percent: percentChange(prev.Price, last.Price)}
}

// fundChange diffs the last two valid NAVs of a trailing window. The window
// spans 14 calendar days to guarantee at least two trading days even across
// market holidays.
func (l *Lookup) fundChange(ctx context.Context, norm string) Change {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -14)

	records, err := l.src.funds.History(ctx, norm, start, end)
	if err != nil {
		log.Warn().Err(err).Str("fund", norm).Msg("fund NAV lookup failed")
		return Change{Unavailable: true}
	}

	valid := tefas.ValidNAVs(records)
	if len(valid) < 2 {
		return Change{}
	}

	last := valid[len(valid)-1]
	prev := valid[len(valid)-2]
	if *prev.NAV == 0 {
		return Change{Unavailable: true}
	}

	return Change{
		Percent: percentChange(*prev.NAV, *last.NAV),
		DateRange: fmt.Sprintf("%s → %s",
			prev.Date.Format("02.01.2006"), last.Date.Format("02.01.2006")),
	}
}

// LastClose returns the most recent closing price for an equity, used to
// derive dynamic weights from quantities.
func (l *Lookup) LastClose(ctx context.Context, ticker string, market model.Market) (float64, error) {
	norm := NormalizeTicker(ticker)
	symbol := l.src.symbolFor(norm, ClassEquity, market)

	closes, err := l.src.equities.RecentCloses(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if len(closes) == 0 {
		return 0, fmt.Errorf("no closing price for %s", norm)
	}
	return closes[len(closes)-1].Price, nil
}

// ClosingSeries returns dated closing prices for an asset across a date
// range, memoized per lookup so the historical calculator never queries
// one asset twice within a single run.
func (l *Lookup) ClosingSeries(ctx context.Context, ticker string, class AssetClass, market model.Market, from, to time.Time) ([]Point, error) {
	norm := NormalizeTicker(ticker)
	key := fmt.Sprintf("series|%s|%s|%s|%s", class, norm, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if cached, ok := l.series[key]; ok {
		return cached, nil
	}

	var points []Point
	switch class {
	case ClassFund:
		records, err := l.src.funds.History(ctx, norm, from, to)
		if err != nil {
			return nil, err
		}
		for _, r := range tefas.ValidNAVs(records) {
			points = append(points, Point{Date: r.Date, Price: *r.NAV})
		}
	default:
		symbol := l.src.symbolFor(norm, ClassEquity, market)
		closes, err := l.src.equities.ClosesByDateRange(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		for _, c := range closes {
			points = append(points, Point{Date: c.Date, Price: c.Price})
		}
	}

	l.series[key] = points
	return points, nil
}

func percentChange(prev, last float64) float64 {
	return (last - prev) / prev * 100
}
