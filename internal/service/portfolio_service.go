package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/apperrors"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/model"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/pricing"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/repository"
)

// displayTimestampFormat is the localized format shown next to archived
// versions in the history view.
const displayTimestampFormat = "02.01.2006 15:04"

// PortfolioService manages the version lifecycle of stored portfolios:
// save archives the displaced current into bounded history, revert promotes
// the newest history entry back, compare diffs the two most recent
// allocations. A save is a read-modify-write with no conflict detection;
// concurrent saves to the same name race and the last write wins.
type PortfolioService struct {
	repo *repository.PortfolioRepository
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewPortfolioService creates a new PortfolioService with the provided
// repository.
func NewPortfolioService(repo *repository.PortfolioRepository) *PortfolioService {
	return &PortfolioService{repo: repo, now: time.Now}
}

// Save validates the holdings, archives the existing current allocation
// (stamped, history truncated to five entries) and installs the new one.
// The first save of a new name creates the container.
func (s *PortfolioService) Save(name string, holdings model.HoldingsSet) (model.VersionContainer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.VersionContainer{}, apperrors.ErrEmptyName
	}
	if err := validateHoldings(holdings); err != nil {
		return model.VersionContainer{}, err
	}

	container, err := s.repo.GetByName(name)
	if err != nil {
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			return model.VersionContainer{}, err
		}
		container = model.VersionContainer{Name: name}
	}

	container.Archive(holdings, s.now().UTC())

	if err := s.repo.Put(&container); err != nil {
		return model.VersionContainer{}, err
	}
	return container, nil
}

// Get returns the current allocation of a portfolio.
func (s *PortfolioService) Get(name string) (model.HoldingsSet, error) {
	container, err := s.repo.GetByName(name)
	if err != nil {
		return model.HoldingsSet{}, err
	}
	if container.Current == nil {
		return model.HoldingsSet{}, apperrors.ErrPortfolioNotFound
	}
	return *container.Current, nil
}

// GetAll lists the stored portfolios by id and name.
func (s *PortfolioService) GetAll() ([]model.PortfolioRecord, error) {
	return s.repo.GetAll()
}

// GetContainer returns the full versioned container for a portfolio.
func (s *PortfolioService) GetContainer(name string) (model.VersionContainer, error) {
	return s.repo.GetByName(name)
}

// VersionView is one history entry enriched with a display timestamp for
// presentation.
type VersionView struct {
	model.Version
	DisplayTimestamp string `json:"display_timestamp,omitempty"`
}

// HistoryView is the presentation form of a container: the current
// allocation plus history entries with localized display timestamps.
type HistoryView struct {
	Name    string             `json:"name"`
	Current *model.HoldingsSet `json:"current"`
	History []VersionView      `json:"history"`
}

// History returns the container with display timestamps attached to each
// archived version.
func (s *PortfolioService) History(name string) (HistoryView, error) {
	container, err := s.repo.GetByName(name)
	if err != nil {
		return HistoryView{}, err
	}

	view := HistoryView{
		Name:    container.Name,
		Current: container.Current,
		History: make([]VersionView, len(container.History)),
	}
	for i, v := range container.History {
		view.History[i] = VersionView{Version: v}
		if v.SaveTimestamp != nil {
			view.History[i].DisplayTimestamp = v.SaveTimestamp.Local().Format(displayTimestampFormat)
		}
	}

	return view, nil
}

// Revert promotes the most recent history entry back to current, stripping
// its archival timestamp. The displaced current allocation is discarded,
// not re-archived; revert destroys where save archives.
func (s *PortfolioService) Revert(name string) (model.VersionContainer, error) {
	container, err := s.repo.GetByName(name)
	if err != nil {
		return model.VersionContainer{}, err
	}

	promoted, ok := container.PopHistory()
	if !ok {
		return model.VersionContainer{}, apperrors.ErrNoHistory
	}
	promoted.SaveTimestamp = nil
	container.Current = &promoted.HoldingsSet

	if err := s.repo.Put(&container); err != nil {
		return model.VersionContainer{}, err
	}
	return container, nil
}

// Delete removes the whole container for a name.
func (s *PortfolioService) Delete(name string) error {
	return s.repo.Delete(name)
}

// Compare diffs per-ticker weights between the current allocation and the
// most recently archived version, sorted by absolute change descending.
func (s *PortfolioService) Compare(name string) (model.ComparisonResult, error) {
	container, err := s.repo.GetByName(name)
	if err != nil {
		return model.ComparisonResult{}, err
	}
	if container.Current == nil || len(container.History) == 0 {
		return model.ComparisonResult{}, apperrors.ErrInsufficientHistory
	}

	previous := container.History[0]

	type entry struct {
		assetType string
		current   float64
		previous  float64
	}
	entries := make(map[string]*entry)

	collect := func(set model.HoldingsSet, intoCurrent bool) {
		visit := func(h model.Holding, assetType string) {
			ticker := pricing.NormalizeTicker(h.Ticker)
			e, ok := entries[ticker]
			if !ok {
				e = &entry{assetType: assetType}
				entries[ticker] = e
			}
			if intoCurrent {
				e.current += h.Weight
			} else {
				e.previous += h.Weight
			}
		}
		for _, h := range set.Stocks {
			visit(h, "stock")
		}
		for _, h := range set.Funds {
			visit(h, "fund")
		}
	}

	collect(*container.Current, true)
	collect(previous.HoldingsSet, false)

	result := model.ComparisonResult{
		CurrentDate: s.now().Local().Format(displayTimestampFormat),
	}
	if previous.SaveTimestamp != nil {
		result.PreviousDate = previous.SaveTimestamp.Local().Format(displayTimestampFormat)
	}

	for ticker, e := range entries {
		result.Comparison = append(result.Comparison, model.WeightComparison{
			Ticker:         ticker,
			Type:           e.assetType,
			CurrentWeight:  e.current,
			PreviousWeight: e.previous,
			Change:         e.current - e.previous,
		})
	}

	sort.Slice(result.Comparison, func(i, j int) bool {
		return math.Abs(result.Comparison[i].Change) > math.Abs(result.Comparison[j].Change)
	})

	return result, nil
}

func validateHoldings(holdings model.HoldingsSet) error {
	if holdings.IsEmpty() {
		return apperrors.ErrEmptyHoldings
	}
	for _, h := range holdings.AllHoldings() {
		if h.Weight < 0 || math.IsNaN(h.Weight) || math.IsInf(h.Weight, 0) {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidWeight, h.NormalizedTicker())
		}
		if h.Quantity != nil && (*h.Quantity < 0 || math.IsNaN(*h.Quantity) || math.IsInf(*h.Quantity, 0)) {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidQuantity, h.NormalizedTicker())
		}
	}
	return nil
}
