/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes for the HTTP layer, decoupled from the domain model.
  Amounts are decimal.Decimal end to end - the decoder rejects
  non-numeric input for free, and responses never round through float64.
  Dates travel as ISO strings and are validated with calendar.ParseDate
  in the handlers.

NAMING CONVENTION:
  - *DTO: response types
  - *Request: request body types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/allowance-engine/allowance"
	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// RESPONSES
// =============================================================================

// SummaryDTO is the top-of-page balance view.
type SummaryDTO struct {
	DailyAllowance   decimal.Decimal `json:"dailyAllowance"`
	StartDate        calendar.Date   `json:"startDate"`
	LastLogCheck     calendar.Date   `json:"lastLogCheck,omitempty"`
	TotalAccumulated decimal.Decimal `json:"totalAccumulated"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	BalanceColor     string          `json:"balanceColor"`
	EntriesAdded     int             `json:"entriesAdded"`
}

// AffordabilityDTO is one proposed purchase with its verdict.
type AffordabilityDTO struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	CanAfford bool            `json:"canAfford"`
	Remaining decimal.Decimal `json:"remaining"`
}

// ProposedListDTO is the projection plus its starting balance.
type ProposedListDTO struct {
	AvailableBalance decimal.Decimal    `json:"availableBalance"`
	Items            []AffordabilityDTO `json:"items"`
}

// WishlistDTO groups items by category in display order.
type WishlistDTO struct {
	Categories []WishlistCategoryDTO `json:"categories"`
}

type WishlistCategoryDTO struct {
	ID      int64                    `json:"id"`
	Name    string                   `json:"name"`
	Visible bool                     `json:"visible"`
	Items   []allowance.WishlistItem `json:"items"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// SettingsRequest updates the base rate and start date.
type SettingsRequest struct {
	DailyAllowance decimal.Decimal `json:"dailyAllowance"`
	StartDate      string          `json:"startDate"`
}

// LogEntryRequest creates or edits a manual accrual log entry.
type LogEntryRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// HistoryEntryRequest creates or edits a rate-change event.
type HistoryEntryRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// SpendingRequest records or edits a spending event.
type SpendingRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date,omitempty"`
}

// ItemRequest is a name+amount body (proposed and wishlist edits).
type ItemRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// WishlistItemRequest creates a wishlist item.
type WishlistItemRequest struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	CategoryID int64           `json:"categoryId"`
}

// CategoryRequest names a wishlist category.
type CategoryRequest struct {
	Name string `json:"name"`
}

// ChangeCategoryRequest refiles a wishlist item.
type ChangeCategoryRequest struct {
	CategoryID int64 `json:"categoryId"`
}

// ColorRangeRequest creates or edits a color band.
type ColorRangeRequest struct {
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Color string          `json:"color"`
}

// VisibilityRequest toggles a section or category.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}
