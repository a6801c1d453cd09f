// Package apperrors defines the sentinel errors shared across the service
// and API layers. Handlers match these with errors.Is to choose an HTTP
// status; everything else is treated as an internal failure.
package apperrors

import "errors"

// Domain entity errors represent missing entities in the system.
var (
	// ErrPortfolioNotFound indicates that no container exists for the
	// requested portfolio name.
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// Business logic errors represent validation failures or constraint
// violations detected before any I/O.
var (
	// ErrEmptyName indicates a save was attempted without a portfolio name.
	ErrEmptyName = errors.New("portfolio name is required")

	// ErrEmptyHoldings indicates a save was attempted with neither stocks
	// nor funds.
	ErrEmptyHoldings = errors.New("at least one stock or fund is required")

	// ErrInvalidWeight indicates a holding carried a malformed weight
	// (negative, NaN or infinite).
	ErrInvalidWeight = errors.New("invalid holding weight")

	// ErrInvalidQuantity indicates a holding carried a malformed quantity.
	ErrInvalidQuantity = errors.New("invalid holding quantity")
)

// Calculation errors. Per-asset lookup failures never surface as errors;
// they degrade to a flagged zero-change detail row. These are the
// portfolio-level failures that abort a calculation.
var (
	// ErrZeroPortfolioValue indicates the total market value resolved to
	// zero in dynamic-weight mode, so weights cannot be derived.
	ErrZeroPortfolioValue = errors.New("total portfolio value is zero")

	// ErrNoHistoricalData indicates the combined price table for the
	// lookback window came back empty.
	ErrNoHistoricalData = errors.New("no historical price data available")

	// ErrCompositionCycle indicates a fund-of-funds composition refers back
	// to itself, directly or through its constituents.
	ErrCompositionCycle = errors.New("composition cycle detected")
)

// Version lifecycle errors.
var (
	// ErrNoHistory indicates a revert was attempted on a portfolio with no
	// archived versions.
	ErrNoHistory = errors.New("no history to revert to")

	// ErrInsufficientHistory indicates a comparison needs both a current
	// allocation and at least one archived version.
	ErrInsufficientHistory = errors.New("not enough versions to compare")
)
