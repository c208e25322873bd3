package allowance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allowance-engine/allowance"
)

// =============================================================================
// RATE LOOKUP
// =============================================================================

func TestRateInEffectOn_NoHistory_FallsBackToBaseRate(t *testing.T) {
	agg := newAggregate("2024-01-01")
	assert.True(t, agg.RateInEffectOn(day("2024-06-15")).Equal(amt(20)))
}

func TestRateInEffectOn_NoQualifyingEvent_FallsBackToBaseRate(t *testing.T) {
	// GIVEN: A rate change effective 2024-03-01
	// WHEN: Asking for a day before it
	// THEN: The base rate applies

	agg := newAggregate("2024-01-01")
	_, err := agg.AddRateChange(day("2024-03-01"), amt(30))
	require.NoError(t, err)

	assert.True(t, agg.RateInEffectOn(day("2024-02-15")).Equal(amt(20)))
	assert.True(t, agg.RateInEffectOn(day("2024-03-01")).Equal(amt(30)), "effective date is inclusive")
}

func TestRateInEffectOn_LatestQualifyingEventWins(t *testing.T) {
	agg := newAggregate("2024-01-01")
	_, err := agg.AddRateChange(day("2024-02-01"), amt(25))
	require.NoError(t, err)
	_, err = agg.AddRateChange(day("2024-04-01"), amt(35))
	require.NoError(t, err)

	assert.True(t, agg.RateInEffectOn(day("2024-03-15")).Equal(amt(25)))
	assert.True(t, agg.RateInEffectOn(day("2024-05-01")).Equal(amt(35)))
}

func TestRateInEffectOn_SameDateTie_LastInsertedWins(t *testing.T) {
	// GIVEN: Two rate changes on the same effective date
	// WHEN: Looking up that date
	// THEN: The later-inserted event wins

	agg := newAggregate("2024-01-01")
	_, err := agg.AddRateChange(day("2024-02-01"), amt(25))
	require.NoError(t, err)
	_, err = agg.AddRateChange(day("2024-02-01"), amt(40))
	require.NoError(t, err)

	assert.True(t, agg.RateInEffectOn(day("2024-02-01")).Equal(amt(40)))
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestRecordRateChange_SameRate_NoEventRecorded(t *testing.T) {
	// GIVEN: Base rate 20
	// WHEN: Recording a change to the same 20
	// THEN: No history event appears

	agg := newAggregate("2024-01-01")
	agg.RecordRateChange(amt(20), day("2024-01-05"))
	assert.Empty(t, agg.AllowanceHistory)
}

func TestRecordRateChange_NewRate_CapturesPreviousAmount(t *testing.T) {
	agg := newAggregate("2024-01-01")
	agg.RecordRateChange(amt(30), day("2024-01-05"))

	require.Len(t, agg.AllowanceHistory, 1)
	ev := agg.AllowanceHistory[0]
	assert.True(t, ev.Amount.Equal(amt(30)))
	require.NotNil(t, ev.PreviousAmount)
	assert.True(t, ev.PreviousAmount.Equal(amt(20)))
	assert.True(t, agg.DailyAllowance.Equal(amt(30)))
}

func TestAddRateChange_BackfilledRow_PreviousAmountNil(t *testing.T) {
	agg := newAggregate("2024-01-01")
	ev, err := agg.AddRateChange(day("2024-02-01"), amt(25))
	require.NoError(t, err)
	assert.Nil(t, ev.PreviousAmount)
	assert.True(t, agg.DailyAllowance.Equal(amt(20)), "manual backfill does not touch the base rate")
}

func TestAddRateChange_NonPositiveAmountRejected(t *testing.T) {
	agg := newAggregate("2024-01-01")

	_, err := agg.AddRateChange(day("2024-02-01"), amt(0))
	assert.ErrorIs(t, err, allowance.ErrValidation)

	_, err = agg.AddRateChange(day("2024-02-01"), amt(-5))
	assert.ErrorIs(t, err, allowance.ErrValidation)
}

func TestHistory_KeptSortedByDate(t *testing.T) {
	agg := newAggregate("2024-01-01")
	_, err := agg.AddRateChange(day("2024-05-01"), amt(25))
	require.NoError(t, err)
	_, err = agg.AddRateChange(day("2024-02-01"), amt(30))
	require.NoError(t, err)

	require.Len(t, agg.AllowanceHistory, 2)
	assert.Equal(t, day("2024-02-01"), agg.AllowanceHistory[0].Date)
	assert.Equal(t, day("2024-05-01"), agg.AllowanceHistory[1].Date)
}

func TestEditRateChange_NoRetroactiveRecompute(t *testing.T) {
	// GIVEN: A log materialized at rate 20
	// WHEN: Retroactively editing the rate history for those days
	// THEN: Existing log amounts are untouched; only future
	//       reconciliation sees the new rate

	agg := newAggregate("2024-01-01")
	agg.Reconcile(day("2024-01-03"))
	ev, err := agg.AddRateChange(day("2024-01-01"), amt(50))
	require.NoError(t, err)
	require.NoError(t, agg.EditRateChange(ev.ID, day("2024-01-01"), amt(50)))

	for _, entry := range agg.AllowanceLog {
		assert.True(t, entry.AmountAdded.Equal(amt(20)), "materialized %s must keep its credited amount", entry.Date)
	}

	added := agg.Reconcile(day("2024-01-04"))
	require.Equal(t, 1, added)
	assert.True(t, agg.AllowanceLog[3].AmountAdded.Equal(amt(50)), "new day uses the edited rate")
}

func TestDeleteRateChange_LogUntouched(t *testing.T) {
	agg := newAggregate("2024-01-01")
	ev, err := agg.AddRateChange(day("2024-01-02"), amt(30))
	require.NoError(t, err)
	agg.Reconcile(day("2024-01-03"))
	before := append([]allowance.AccrualLogEntry(nil), agg.AllowanceLog...)

	require.NoError(t, agg.DeleteRateChange(ev.ID))

	assert.Empty(t, agg.AllowanceHistory)
	assert.Equal(t, before, agg.AllowanceLog)
}

func TestHistoryMutations_UnknownID(t *testing.T) {
	agg := newAggregate("2024-01-01")
	assert.ErrorIs(t, agg.EditRateChange(999, day("2024-01-01"), amt(10)), allowance.ErrEntryNotFound)
	assert.ErrorIs(t, agg.DeleteRateChange(999), allowance.ErrEntryNotFound)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestUpdateSettings_RateChangeRecordedEffectiveToday(t *testing.T) {
	agg := newAggregate("2024-01-01")

	err := agg.UpdateSettings(amt(35), day("2024-01-01"), day("2024-01-10"))
	require.NoError(t, err)

	assert.True(t, agg.DailyAllowance.Equal(amt(35)))
	require.Len(t, agg.AllowanceHistory, 1)
	assert.Equal(t, day("2024-01-10"), agg.AllowanceHistory[0].Date)
}

func TestUpdateSettings_NegativeRateRejected(t *testing.T) {
	agg := newAggregate("2024-01-01")
	err := agg.UpdateSettings(amt(-1), day("2024-01-01"), day("2024-01-10"))
	assert.ErrorIs(t, err, allowance.ErrValidation)
	assert.True(t, agg.DailyAllowance.Equal(amt(20)), "state unchanged on validation failure")
}
