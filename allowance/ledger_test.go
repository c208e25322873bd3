package allowance_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allowance-engine/allowance"
	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(s string) calendar.Date { return calendar.MustDate(s) }

func amt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newAggregate(start string) *allowance.Aggregate {
	return allowance.NewAggregate(day(start))
}

func logDates(a *allowance.Aggregate) []calendar.Date {
	dates := make([]calendar.Date, len(a.AllowanceLog))
	for i, e := range a.AllowanceLog {
		dates[i] = e.Date
	}
	return dates
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestReconcile_BackfillsEveryDayWithRunningTotals(t *testing.T) {
	// GIVEN: A fresh aggregate started 2024-01-01 at the default rate 20
	// WHEN: Reconciling on 2024-01-03
	// THEN: Three entries exist with running totals 20, 40, 60

	agg := newAggregate("2024-01-01")
	added := agg.Reconcile(day("2024-01-03"))

	assert.Equal(t, 3, added)
	require.Len(t, agg.AllowanceLog, 3)

	expected := []int64{20, 40, 60}
	for i, entry := range agg.AllowanceLog {
		assert.True(t, entry.AmountAdded.Equal(amt(20)), "day %d amount", i)
		assert.True(t, entry.NewAccumulated.Equal(amt(expected[i])), "day %d running total", i)
		assert.Equal(t, allowance.OriginAutomatic, entry.Origin)
	}
	assert.True(t, agg.TotalAccumulated.Equal(amt(60)))
	assert.Equal(t, day("2024-01-03"), agg.LastLogCheck)
}

func TestReconcile_AppliesRateInEffectPerDay(t *testing.T) {
	// GIVEN: Rate change to 30 effective 2024-01-02
	// WHEN: Reconciling 2024-01-01 through 2024-01-03
	// THEN: Amounts are 20, 30, 30 and totals 20, 50, 80

	agg := newAggregate("2024-01-01")
	_, err := agg.AddRateChange(day("2024-01-02"), amt(30))
	require.NoError(t, err)

	agg.Reconcile(day("2024-01-03"))

	require.Len(t, agg.AllowanceLog, 3)
	assert.True(t, agg.AllowanceLog[0].AmountAdded.Equal(amt(20)))
	assert.True(t, agg.AllowanceLog[1].AmountAdded.Equal(amt(30)))
	assert.True(t, agg.AllowanceLog[2].AmountAdded.Equal(amt(30)))
	assert.True(t, agg.AllowanceLog[2].NewAccumulated.Equal(amt(80)))
	assert.True(t, agg.TotalAccumulated.Equal(amt(80)))
}

func TestReconcile_SameDayTwice_SecondIsNoOp(t *testing.T) {
	// GIVEN: An aggregate already reconciled today
	// WHEN: Reconciling again on the same day
	// THEN: Zero entries added, log byte-identical

	agg := newAggregate("2024-01-01")
	first := agg.Reconcile(day("2024-01-05"))
	require.Equal(t, 5, first)
	before := append([]allowance.AccrualLogEntry(nil), agg.AllowanceLog...)

	second := agg.Reconcile(day("2024-01-05"))

	assert.Equal(t, 0, second)
	assert.Equal(t, before, agg.AllowanceLog)
}

func TestReconcile_FillsOnlyMissingDays(t *testing.T) {
	// GIVEN: A log reconciled through 2024-01-03, then days pass
	// WHEN: Reconciling on 2024-01-06
	// THEN: Only the three missing days are appended

	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-03"))

	added := agg.Reconcile(day("2024-01-06"))

	assert.Equal(t, 3, added)
	assert.Len(t, agg.AllowanceLog, 6)
	assert.Equal(t, day("2024-01-06"), agg.LastLogCheck)
}

func TestReconcile_OneEntryPerDate(t *testing.T) {
	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-04"))
	agg.Reconcile(day("2024-01-07"))

	seen := map[calendar.Date]bool{}
	for _, entry := range agg.AllowanceLog {
		assert.False(t, seen[entry.Date], "duplicate entry for %s", entry.Date)
		seen[entry.Date] = true
	}
}

func TestReconcile_UniqueIDsAcrossBulkBackfill(t *testing.T) {
	// GIVEN: A two-week gap creating many entries in one pass
	// WHEN: Reconciling
	// THEN: Every entry has a distinct ID

	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-14"))

	seen := map[int64]bool{}
	for _, entry := range agg.AllowanceLog {
		assert.False(t, seen[entry.ID], "duplicate ID %d", entry.ID)
		seen[entry.ID] = true
	}
}

// =============================================================================
// MANUAL LOG OPERATIONS
// =============================================================================

func TestAddLogEntry_DuplicateDateRejected(t *testing.T) {
	// GIVEN: A reconciled log holding 2024-01-02
	// WHEN: Manually adding another entry for 2024-01-02
	// THEN: DuplicateDateError naming the existing entry; log unchanged

	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-03"))
	before := append([]allowance.AccrualLogEntry(nil), agg.AllowanceLog...)

	_, err := agg.AddLogEntry(day("2024-01-02"), amt(10))

	var dup *allowance.DuplicateDateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, day("2024-01-02"), dup.Date)
	assert.ErrorIs(t, err, allowance.ErrDuplicateLogDate)
	assert.Equal(t, before, agg.AllowanceLog)
	assert.True(t, agg.TotalAccumulated.Equal(amt(60)))
}

func TestAddLogEntry_InsertsSortedAndRecomputesTotals(t *testing.T) {
	// GIVEN: Entries for Jan 1 and Jan 3
	// WHEN: Adding a manual entry for Jan 2
	// THEN: The log is ordered by date and every total is rewritten

	agg := newAggregate("2024-01-01")
	_, err := agg.AddLogEntry(day("2024-01-01"), amt(20))
	require.NoError(t, err)
	_, err = agg.AddLogEntry(day("2024-01-03"), amt(20))
	require.NoError(t, err)

	entry, err := agg.AddLogEntry(day("2024-01-02"), amt(5))
	require.NoError(t, err)
	assert.Equal(t, allowance.OriginManual, entry.Origin)

	assert.Equal(t, []calendar.Date{day("2024-01-01"), day("2024-01-02"), day("2024-01-03")}, logDates(agg))
	assert.True(t, agg.AllowanceLog[1].NewAccumulated.Equal(amt(25)))
	assert.True(t, agg.AllowanceLog[2].NewAccumulated.Equal(amt(45)))
	assert.True(t, agg.TotalAccumulated.Equal(amt(45)))
}

func TestAddLogEntry_ZeroAmountAllowed_NegativeRejected(t *testing.T) {
	agg := newAggregate("2024-01-01")

	_, err := agg.AddLogEntry(day("2024-01-01"), decimal.Zero)
	assert.NoError(t, err, "zero marks a skipped day")

	_, err = agg.AddLogEntry(day("2024-01-02"), amt(-5))
	assert.ErrorIs(t, err, allowance.ErrValidation)
}

func TestAddLogEntry_DoesNotMoveWatermark(t *testing.T) {
	// GIVEN: A log reconciled through 2024-01-03
	// WHEN: Adding a manual entry for a later date
	// THEN: LastLogCheck is untouched, so the next reconcile still runs

	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-03"))

	_, err := agg.AddLogEntry(day("2024-01-10"), amt(15))
	require.NoError(t, err)

	assert.Equal(t, day("2024-01-03"), agg.LastLogCheck)
	added := agg.Reconcile(day("2024-01-05"))
	assert.Equal(t, 2, added, "Jan 4 and Jan 5 still get backfilled")
}

func TestEditLogEntry_MoveOntoOccupiedDateRejected(t *testing.T) {
	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-02"))
	first := agg.AllowanceLog[0]

	err := agg.EditLogEntry(first.ID, day("2024-01-02"), amt(20))

	var dup *allowance.DuplicateDateError
	assert.ErrorAs(t, err, &dup)
}

func TestEditLogEntry_SameDateInPlaceAllowed(t *testing.T) {
	// GIVEN: An automatic entry
	// WHEN: Editing its amount without moving the date
	// THEN: No duplicate error, origin flips to manual, totals recomputed

	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-02"))
	first := agg.AllowanceLog[0]

	err := agg.EditLogEntry(first.ID, first.Date, amt(100))
	require.NoError(t, err)

	assert.Equal(t, allowance.OriginManual, agg.AllowanceLog[0].Origin)
	assert.True(t, agg.AllowanceLog[0].NewAccumulated.Equal(amt(100)))
	assert.True(t, agg.AllowanceLog[1].NewAccumulated.Equal(amt(120)))
	assert.True(t, agg.TotalAccumulated.Equal(amt(120)))
}

func TestDeleteLogEntry_RecomputesTotals(t *testing.T) {
	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-03"))
	middle := agg.AllowanceLog[1]

	err := agg.DeleteLogEntry(middle.ID)
	require.NoError(t, err)

	require.Len(t, agg.AllowanceLog, 2)
	assert.True(t, agg.AllowanceLog[1].NewAccumulated.Equal(amt(40)))
	assert.True(t, agg.TotalAccumulated.Equal(amt(40)))
}

func TestDeleteLogEntry_LastEntry_TotalGoesToZero(t *testing.T) {
	// GIVEN: A log with a single entry
	// WHEN: Deleting it
	// THEN: TotalAccumulated is zero, not the stale previous value

	agg := newAggregate("2024-01-01")
	entry, err := agg.AddLogEntry(day("2024-01-01"), amt(20))
	require.NoError(t, err)

	require.NoError(t, agg.DeleteLogEntry(entry.ID))

	assert.Empty(t, agg.AllowanceLog)
	assert.True(t, agg.TotalAccumulated.Equal(decimal.Zero))
}

func TestLogMutations_UnknownID(t *testing.T) {
	agg := newAggregate("2024-01-01")
	assert.ErrorIs(t, agg.EditLogEntry(999, day("2024-01-01"), amt(10)), allowance.ErrEntryNotFound)
	assert.ErrorIs(t, agg.DeleteLogEntry(999), allowance.ErrEntryNotFound)
}
