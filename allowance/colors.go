/*
colors.go - Balance color bands

PURPOSE:
  The presentation layer colors the available balance by configurable
  ranges: positive bands (0..20 blue, 21..50 green, ...) and negative
  bands (-20..-1 orange, ...). The core only owns the data shape and the
  lookup; rendering is the caller's problem.
*/
package allowance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TYPES
// =============================================================================

// ColorRange maps a closed balance interval [Min, Max] to a hex color.
type ColorRange struct {
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Color string          `json:"color"`
}

// ColorScheme holds the bands for non-negative and negative balances.
type ColorScheme struct {
	Positive []ColorRange `json:"positive"`
	Negative []ColorRange `json:"negative"`
}

// RangeKind selects which band list a mutation targets.
type RangeKind string

const (
	RangePositive RangeKind = "positive"
	RangeNegative RangeKind = "negative"
)

// Fallback colors when no range matches.
const (
	fallbackPositive = "#4ade80"
	fallbackNegative = "#f87171"
)

// DefaultColorScheme is the band set new users start with.
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		Positive: []ColorRange{
			{Min: dec(0), Max: dec(20), Color: "#3b82f6"},
			{Min: dec(21), Max: dec(50), Color: "#10b981"},
			{Min: dec(51), Max: dec(999999), Color: "#8b5cf6"},
		},
		Negative: []ColorRange{
			{Min: dec(-999999), Max: dec(-51), Color: "#7f1d1d"},
			{Min: dec(-50), Max: dec(-21), Color: "#ef4444"},
			{Min: dec(-20), Max: dec(-1), Color: "#f59e0b"},
		},
	}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// =============================================================================
// LOOKUP
// =============================================================================

// BalanceColor returns the color for a balance: non-negative balances
// scan the positive bands, negative ones the negative bands, with a
// hard-coded fallback per sign when nothing matches.
func (cs ColorScheme) BalanceColor(balance decimal.Decimal) string {
	ranges := cs.Positive
	fallback := fallbackPositive
	if balance.IsNegative() {
		ranges = cs.Negative
		fallback = fallbackNegative
	}
	for _, r := range ranges {
		if balance.GreaterThanOrEqual(r.Min) && balance.LessThanOrEqual(r.Max) {
			return r.Color
		}
	}
	return fallback
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddColorRange validates and inserts a band, keeping the list sorted
// by Min. Positive bands must be entirely >= 0, negative entirely <= 0.
func (a *Aggregate) AddColorRange(kind RangeKind, min, max decimal.Decimal, color string) error {
	if err := validateRange(kind, min, max, color); err != nil {
		return err
	}
	switch kind {
	case RangePositive:
		a.ColorScheme.Positive = insertSorted(a.ColorScheme.Positive, ColorRange{Min: min, Max: max, Color: color})
	case RangeNegative:
		a.ColorScheme.Negative = insertSorted(a.ColorScheme.Negative, ColorRange{Min: min, Max: max, Color: color})
	default:
		return &ValidationError{Field: "kind", Reason: "must be positive or negative"}
	}
	return nil
}

// EditColorRange replaces the band at index and re-sorts.
func (a *Aggregate) EditColorRange(kind RangeKind, index int, min, max decimal.Decimal, color string) error {
	if err := validateRange(kind, min, max, color); err != nil {
		return err
	}
	ranges, err := a.rangesFor(kind)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*ranges) {
		return ErrEntryNotFound
	}
	(*ranges)[index] = ColorRange{Min: min, Max: max, Color: color}
	sortRanges(*ranges)
	return nil
}

// DeleteColorRange removes the band at index.
func (a *Aggregate) DeleteColorRange(kind RangeKind, index int) error {
	ranges, err := a.rangesFor(kind)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*ranges) {
		return ErrEntryNotFound
	}
	*ranges = append((*ranges)[:index], (*ranges)[index+1:]...)
	return nil
}

func (a *Aggregate) rangesFor(kind RangeKind) (*[]ColorRange, error) {
	switch kind {
	case RangePositive:
		return &a.ColorScheme.Positive, nil
	case RangeNegative:
		return &a.ColorScheme.Negative, nil
	default:
		return nil, &ValidationError{Field: "kind", Reason: "must be positive or negative"}
	}
}

func validateRange(kind RangeKind, min, max decimal.Decimal, color string) error {
	if color == "" {
		return &ValidationError{Field: "color", Reason: "required"}
	}
	if min.GreaterThan(max) {
		return &ValidationError{Field: "min", Reason: "must not exceed max"}
	}
	switch kind {
	case RangePositive:
		if min.IsNegative() || max.IsNegative() {
			return &ValidationError{Field: "range", Reason: "positive ranges must have values >= 0"}
		}
	case RangeNegative:
		if min.IsPositive() || max.IsPositive() {
			return &ValidationError{Field: "range", Reason: "negative ranges must have values <= 0"}
		}
	}
	return nil
}

func insertSorted(ranges []ColorRange, r ColorRange) []ColorRange {
	ranges = append(ranges, r)
	sortRanges(ranges)
	return ranges
}

func sortRanges(ranges []ColorRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Min.LessThan(ranges[j].Min)
	})
}
