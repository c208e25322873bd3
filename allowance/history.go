/*
history.go - Rate history: what was the daily allowance on date D?

PURPOSE:
  The daily rate can change over time. The history is the ordered record
  of those changes, and RateInEffectOn answers the question the ledger
  engine asks for every backfilled day.

LOOKUP RULE:
  Among events with Date <= D (lexicographic string comparison), the one
  with the maximum Date wins; if two events share a date, the
  last-inserted one wins. With no qualifying event the configured base
  rate applies. The scan is linear in history size - the history is tiny
  and correctness for arbitrarily edited histories matters more than an
  index.

RETROACTIVE EDITS:
  Editing or deleting a history event does NOT recompute the amounts of
  accrual log entries that were already materialized from the old rate.
  Those entries are facts about what was credited, not a projection.
*/
package allowance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// LOOKUP
// =============================================================================

// RateInEffectOn returns the daily rate applicable on date.
func (a *Aggregate) RateInEffectOn(date calendar.Date) decimal.Decimal {
	var (
		found bool
		best  RateChangeEvent
	)
	for _, ev := range a.AllowanceHistory {
		if !ev.Date.BeforeOrEqual(date) {
			continue
		}
		// >= so that a later-inserted event on the same date wins.
		if !found || ev.Date.AfterOrEqual(best.Date) {
			best = ev
			found = true
		}
	}
	if !found {
		return a.DailyAllowance
	}
	return best.Amount
}

// =============================================================================
// MUTATIONS
// =============================================================================

// RecordRateChange updates the base rate, recording a history event only
// when the rate actually changed.
func (a *Aggregate) RecordRateChange(newRate decimal.Decimal, effective calendar.Date) {
	if !newRate.Equal(a.DailyAllowance) {
		prev := a.DailyAllowance
		a.AllowanceHistory = append(a.AllowanceHistory, RateChangeEvent{
			ID:             a.NextID(),
			Date:           effective,
			Amount:         newRate,
			PreviousAmount: &prev,
		})
		a.sortHistory()
	}
	a.DailyAllowance = newRate
}

// AddRateChange back-fills a history event by hand. PreviousAmount is
// unknown for manual rows and stays nil.
func (a *Aggregate) AddRateChange(date calendar.Date, amount decimal.Decimal) (*RateChangeEvent, error) {
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	ev := RateChangeEvent{ID: a.NextID(), Date: date, Amount: amount}
	a.AllowanceHistory = append(a.AllowanceHistory, ev)
	a.sortHistory()
	return &ev, nil
}

// EditRateChange updates a history event in place. Already-materialized
// log entries keep their old amounts; see the file comment.
func (a *Aggregate) EditRateChange(id int64, date calendar.Date, amount decimal.Decimal) error {
	if date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	for i := range a.AllowanceHistory {
		if a.AllowanceHistory[i].ID == id {
			a.AllowanceHistory[i].Date = date
			a.AllowanceHistory[i].Amount = amount
			a.sortHistory()
			return nil
		}
	}
	return ErrEntryNotFound
}

// DeleteRateChange removes a history event. No retroactive recompute.
func (a *Aggregate) DeleteRateChange(id int64) error {
	for i := range a.AllowanceHistory {
		if a.AllowanceHistory[i].ID == id {
			a.AllowanceHistory = append(a.AllowanceHistory[:i], a.AllowanceHistory[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// sortHistory keeps the internal order ascending by date. The sort is
// stable so same-date events keep insertion order, which is what makes
// "last inserted wins" well-defined in RateInEffectOn.
func (a *Aggregate) sortHistory() {
	sort.SliceStable(a.AllowanceHistory, func(i, j int) bool {
		return a.AllowanceHistory[i].Date.Before(a.AllowanceHistory[j].Date)
	})
}
