/*
Package calendar supplies dates and "today" for the allowance engine.

PURPOSE:
  Everything in this system happens at calendar-day granularity. This
  package owns the Date representation, date arithmetic (enumerating the
  days between two bounds), and the clock that answers "what day is it"
  in the fixed reference time zone.

KEY INVARIANT - LEXICOGRAPHIC DATES:
  Date is a zero-padded ISO string ("2006-01-02"). For this format,
  lexicographic string ordering IS chronological ordering, and the rest
  of the engine depends on that: the accrual log is sorted by string
  comparison, rate lookups compare strings, and persisted state stores
  dates as these strings. Do NOT replace the comparisons with
  time.Time-based ones; a time zone conversion bug in a reconstructed
  time.Time would silently change ordering, while the string form cannot.

REFERENCE ZONE:
  "Today" is computed in a fixed UTC-8 zone. The offset is deliberately
  constant (no DST): a day boundary that jumps twice a year would make
  the reconciliation watermark ambiguous around the transition.

SEE ALSO:
  - allowance/ledger.go: Reconcile enumerates days via DatesBetween
  - allowance/history.go: rate lookup relies on string ordering
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - ISO day string with lexicographic ordering
// =============================================================================

// Date is a calendar day in ISO "2006-01-02" form.
// The zero value ("") means "absent".
type Date string

const layout = "2006-01-02"

// refZone is the fixed reference zone for day boundaries (UTC-8, no DST).
var refZone = time.FixedZone("PST", -8*60*60)

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	// Round-trip guards against non-padded forms like "2024-1-2",
	// which would break lexicographic ordering.
	if t.Format(layout) != s {
		return "", fmt.Errorf("invalid date %q: not zero-padded ISO form", s)
	}
	return Date(s), nil
}

// MustDate is ParseDate for literals in tests and defaults.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf converts a time.Time to the Date of its calendar day in the
// given location.
func DateOf(t time.Time, loc *time.Location) Date {
	return Date(t.In(loc).Format(layout))
}

// Comparison. String comparison is the contract, not an optimization.
func (d Date) Before(other Date) bool        { return string(d) < string(other) }
func (d Date) After(other Date) bool         { return string(d) > string(other) }
func (d Date) BeforeOrEqual(other Date) bool { return string(d) <= string(other) }
func (d Date) AfterOrEqual(other Date) bool  { return string(d) >= string(other) }
func (d Date) IsZero() bool                  { return d == "" }

func (d Date) String() string { return string(d) }

// Time returns the day at midnight UTC. Only used for arithmetic; the
// result must never be compared against another Date's Time.
func (d Date) Time() time.Time {
	t, err := time.ParseInLocation(layout, string(d), time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date(d.Time().AddDate(0, 0, n).Format(layout))
}

// DatesBetween enumerates every calendar day from from through to,
// inclusive, in ascending order. Returns nil when from is after to.
func DatesBetween(from, to Date) []Date {
	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil
	}
	var days []Date
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// =============================================================================
// CLOCK - Source of "today"
// =============================================================================

// Clock answers "what day is it" in the reference zone. The engine never
// calls time.Now directly so tests can pin the day.
type Clock interface {
	Today() Date
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Today() Date { return DateOf(time.Now(), refZone) }

// FixedClock always reports the same day. For tests.
type FixedClock struct {
	Day Date
}

func (c FixedClock) Today() Date { return c.Day }
