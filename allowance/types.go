/*
Package allowance implements the daily-allowance ledger engine.

PURPOSE:
  Tracks a per-user daily cash allowance: a rate history of how the daily
  amount changed over time, an accrual log with exactly one entry per
  elapsed day, spending against the accrued total, and wish-list /
  proposed-purchase affordability projections.

KEY CONCEPTS IN THIS FILE (types.go):
  - Aggregate: the single per-user state root that owns everything
  - AccrualLogEntry: one day's accrual with its derived running total
  - RateChangeEvent: a point where the daily rate changed
  - SpendingEvent / ProposedPurchase / WishlistItem: tracker records

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every amount, never float64
  2. One mutator: the aggregate is owned by exactly one caller at a time;
     there is no internal locking
  3. Explicit persistence: mutations never save; callers invoke the
     Gateway at the call site
  4. Monotonic IDs: every entity ID comes from the aggregate's sequence,
     so IDs stay unique even when reconciliation creates many entries in
     one pass

SEE ALSO:
  - ledger.go: reconciliation and manual log operations
  - history.go: rate history lookup and mutations
  - spending.go: spending + affordability projection
  - wishlist.go: wishlist items and categories
*/
package allowance

import (
	"github.com/shopspring/decimal"

	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// LOG AND HISTORY RECORDS
// =============================================================================

// EntryOrigin says how an accrual log entry came to exist.
type EntryOrigin string

const (
	OriginAutomatic EntryOrigin = "automatic" // created by Reconcile
	OriginManual    EntryOrigin = "manual"    // created/edited by the user
)

// AccrualLogEntry is one day's allowance accrual.
//
// INVARIANT: at most one entry per Date across the whole log.
// NewAccumulated is derived; regenerateTotals recomputes it for every
// entry after any mutation.
type AccrualLogEntry struct {
	ID             int64           `json:"id"`
	Date           calendar.Date   `json:"date"`
	AmountAdded    decimal.Decimal `json:"amountAdded"`
	NewAccumulated decimal.Decimal `json:"newAccumulated"`
	Origin         EntryOrigin     `json:"origin"`
}

// RateChangeEvent records that the daily rate became Amount on Date.
// PreviousAmount is nil for manually back-filled history rows.
type RateChangeEvent struct {
	ID             int64            `json:"id"`
	Date           calendar.Date    `json:"date"`
	Amount         decimal.Decimal  `json:"amount"`
	PreviousAmount *decimal.Decimal `json:"previousAmount,omitempty"`
}

// =============================================================================
// TRACKER RECORDS
// =============================================================================

// SpendingEvent is money actually spent.
type SpendingEvent struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   calendar.Date   `json:"date"`
}

// ProposedPurchase is a purchase under consideration. Affordability is
// evaluated in stored order; see AffordabilityProjection.
type ProposedPurchase struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// WishlistItem belongs to exactly one category.
type WishlistItem struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	CategoryID int64           `json:"categoryId"`
}

// WishlistCategory groups wishlist items.
// The category with ID UnassignedCategoryID always exists and cannot be
// deleted; items from deleted categories fall back to it.
type WishlistCategory struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// UnassignedCategoryID is the fixed sentinel category.
const UnassignedCategoryID int64 = 1

// =============================================================================
// AGGREGATE - per-user state root
// =============================================================================

// Aggregate is the full persisted state for one user. The ledger engine
// exclusively owns AllowanceLog and LastLogCheck; the tracker lists are
// independently mutable but live in the same blob so one Gateway.Save
// captures everything.
type Aggregate struct {
	DailyAllowance    decimal.Decimal `json:"dailyAllowance"`
	StartDate         calendar.Date   `json:"startDate"`
	LastAllowanceDate calendar.Date   `json:"lastAllowanceDate"`

	// LastLogCheck is the reconciliation watermark: the last day the log
	// was verified complete. "" means never.
	LastLogCheck calendar.Date `json:"lastLogCheck"`

	TotalAccumulated decimal.Decimal `json:"totalAccumulated"`

	Spending           []SpendingEvent    `json:"spending"`
	Proposed           []ProposedPurchase `json:"proposed"`
	Wishlist           []WishlistItem     `json:"wishlist"`
	WishlistCategories []WishlistCategory `json:"wishlistCategories"`

	AllowanceHistory []RateChangeEvent `json:"allowanceHistory"`
	AllowanceLog     []AccrualLogEntry `json:"allowanceLog"`

	ColorScheme        ColorScheme      `json:"colorScheme"`
	SectionVisibility  map[string]bool  `json:"sectionVisibility"`
	CategoryVisibility map[string]bool  `json:"categoryVisibility"`

	// LastID backs NextID. Monotonic, persisted with the aggregate, never
	// reset. Wall-clock IDs are not acceptable here: reconciliation can
	// create many entries within one clock tick.
	LastID int64 `json:"lastId"`
}

// NextID returns the next unique ID scoped to this aggregate.
func (a *Aggregate) NextID() int64 {
	a.LastID++
	return a.LastID
}

// NewAggregate builds the default state for a user seen for the first
// time: base rate 20/day starting today, the Unassigned category, and the
// default color bands.
func NewAggregate(today calendar.Date) *Aggregate {
	return &Aggregate{
		DailyAllowance:    decimal.NewFromInt(20),
		StartDate:         today,
		LastAllowanceDate: today,
		TotalAccumulated:  decimal.NewFromInt(20),
		Spending:          []SpendingEvent{},
		Proposed:          []ProposedPurchase{},
		Wishlist:          []WishlistItem{},
		WishlistCategories: []WishlistCategory{
			{ID: UnassignedCategoryID, Name: "Unassigned", Order: 0},
		},
		AllowanceHistory: []RateChangeEvent{},
		AllowanceLog:     []AccrualLogEntry{},
		ColorScheme:      DefaultColorScheme(),
		SectionVisibility: map[string]bool{
			"proposedPurchases":  true,
			"wishList":           true,
			"recordSpending":     true,
			"settings":           true,
			"allowanceHistory":   true,
			"allowanceLog":       true,
			"categoryManagement": true,
			"colorScheme":        true,
		},
		CategoryVisibility: map[string]bool{},
		LastID:             UnassignedCategoryID,
	}
}

// UpdateSettings sets the base daily rate and start date. A rate change
// is recorded in the history (effective today) only when the rate
// actually differs; the base rate is updated either way.
func (a *Aggregate) UpdateSettings(newRate decimal.Decimal, startDate calendar.Date, today calendar.Date) error {
	if newRate.IsNegative() {
		return &ValidationError{Field: "dailyAllowance", Reason: "must not be negative"}
	}
	if startDate.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "required"}
	}
	a.RecordRateChange(newRate, today)
	a.StartDate = startDate
	return nil
}
