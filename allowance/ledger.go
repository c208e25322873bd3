/*
ledger.go - The accrual log and its reconciliation engine

PURPOSE:
  Keeps the accrual log consistent: exactly one entry per calendar day
  from the start date through today, each carrying the rate in effect on
  that day and a derived running total.

RECONCILIATION:
  Reconcile is cheap to call and is invoked on every read of the summary
  or log. A watermark (LastLogCheck) short-circuits repeat calls within
  the same day. When it does run, it backfills whatever days are missing
  - a user who opens the app after two weeks away gets fourteen entries
  in one pass, each priced by the rate history for its own day.

RUNNING TOTALS:
  Totals are recomputed from scratch after every mutation: sort the log,
  walk it once, write NewAccumulated into each entry. The log holds a few
  hundred entries at most; a full O(n) pass is simpler and harder to get
  wrong than incremental updates, and it makes manual edits and deletes
  trivially correct.

MANUAL ENTRIES:
  Users can add, edit, and delete log entries directly. These share the
  one-entry-per-day invariant with reconciliation but do NOT move the
  watermark: a manual edit today says nothing about whether tomorrow's
  reconciliation is needed.
*/
package allowance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile brings the log up to date through today and returns the
// number of entries added. Zero means nothing changed and the caller can
// skip persisting. Calling twice on the same day is a no-op on the
// second call.
func (a *Aggregate) Reconcile(today calendar.Date) int {
	if !a.LastLogCheck.IsZero() && a.LastLogCheck == today {
		return 0
	}

	existing := make(map[calendar.Date]bool, len(a.AllowanceLog))
	for _, entry := range a.AllowanceLog {
		existing[entry.Date] = true
	}

	added := 0
	for _, day := range calendar.DatesBetween(a.StartDate, today) {
		if existing[day] {
			continue
		}
		a.AllowanceLog = append(a.AllowanceLog, AccrualLogEntry{
			ID:          a.NextID(),
			Date:        day,
			AmountAdded: a.RateInEffectOn(day),
			Origin:      OriginAutomatic,
		})
		added++
	}

	a.regenerateTotals()
	a.LastLogCheck = today
	return added
}

// regenerateTotals sorts the log ascending by date and rewrites every
// running total. Full recompute each time; see the file comment.
func (a *Aggregate) regenerateTotals() {
	sort.SliceStable(a.AllowanceLog, func(i, j int) bool {
		return a.AllowanceLog[i].Date.Before(a.AllowanceLog[j].Date)
	})

	running := decimal.Zero
	for i := range a.AllowanceLog {
		running = running.Add(a.AllowanceLog[i].AmountAdded)
		a.AllowanceLog[i].NewAccumulated = running
	}
	a.TotalAccumulated = running
}

// =============================================================================
// MANUAL LOG OPERATIONS
// =============================================================================

// AddLogEntry inserts a manual accrual for a date with no entry yet.
// Amount zero is allowed (a skipped day); negative is not.
func (a *Aggregate) AddLogEntry(date calendar.Date, amount decimal.Decimal) (*AccrualLogEntry, error) {
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "required"}
	}
	if amount.IsNegative() {
		return nil, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if existing := a.logEntryOn(date, 0); existing != nil {
		return nil, &DuplicateDateError{Date: date, ExistingID: existing.ID}
	}

	entry := AccrualLogEntry{
		ID:          a.NextID(),
		Date:        date,
		AmountAdded: amount,
		Origin:      OriginManual,
	}
	a.AllowanceLog = append(a.AllowanceLog, entry)
	a.regenerateTotals()
	return &entry, nil
}

// EditLogEntry rewrites an entry's date and amount. Moving onto a date
// held by a different entry is rejected; editing in place is fine.
func (a *Aggregate) EditLogEntry(id int64, date calendar.Date, amount decimal.Decimal) error {
	if date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}

	idx := -1
	for i := range a.AllowanceLog {
		if a.AllowanceLog[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrEntryNotFound
	}
	if existing := a.logEntryOn(date, id); existing != nil {
		return &DuplicateDateError{Date: date, ExistingID: existing.ID}
	}

	a.AllowanceLog[idx].Date = date
	a.AllowanceLog[idx].AmountAdded = amount
	a.AllowanceLog[idx].Origin = OriginManual
	a.regenerateTotals()
	return nil
}

// DeleteLogEntry removes an entry and recomputes totals.
func (a *Aggregate) DeleteLogEntry(id int64) error {
	for i := range a.AllowanceLog {
		if a.AllowanceLog[i].ID == id {
			a.AllowanceLog = append(a.AllowanceLog[:i], a.AllowanceLog[i+1:]...)
			a.regenerateTotals()
			return nil
		}
	}
	return ErrEntryNotFound
}

// logEntryOn returns the entry on date, ignoring the entry with exceptID.
func (a *Aggregate) logEntryOn(date calendar.Date, exceptID int64) *AccrualLogEntry {
	for i := range a.AllowanceLog {
		if a.AllowanceLog[i].Date == date && a.AllowanceLog[i].ID != exceptID {
			return &a.AllowanceLog[i]
		}
	}
	return nil
}
