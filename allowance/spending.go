/*
spending.go - Spending events and the affordability projection

PURPOSE:
  Records what was actually spent and answers two questions:
    - AvailableBalance: accrued total minus everything spent
    - AffordabilityProjection: which proposed purchases fit, evaluated
      greedily in stored order

ORDER DEPENDENCE:
  The projection folds the proposed list top to bottom with a running
  balance. An affordable item reserves its amount before the next item is
  evaluated; an unaffordable one reserves nothing. With balance 50 and
  proposals [40, 20, 5], the 40 fits (10 left), the 20 does not, the 5
  does (5 left). Reordering the list changes the answer. This is the
  contract - it is a priority list, not a knapsack solver.
*/
package allowance

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// DERIVED READS
// =============================================================================

// TotalSpent sums all spending events.
func (a *Aggregate) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, s := range a.Spending {
		total = total.Add(s.Amount)
	}
	return total
}

// AvailableBalance is the accrued total minus total spent. May go
// negative; the color scheme has bands for that.
func (a *Aggregate) AvailableBalance() decimal.Decimal {
	return a.TotalAccumulated.Sub(a.TotalSpent())
}

// AffordabilityItem is one proposed purchase with its verdict.
type AffordabilityItem struct {
	Purchase  ProposedPurchase
	CanAfford bool
	// Remaining is the running balance after this item was evaluated.
	Remaining decimal.Decimal
}

// AffordabilityProjection evaluates the proposed list in stored order.
func (a *Aggregate) AffordabilityProjection() []AffordabilityItem {
	running := a.AvailableBalance()
	items := make([]AffordabilityItem, 0, len(a.Proposed))
	for _, p := range a.Proposed {
		canAfford := running.GreaterThanOrEqual(p.Amount)
		if canAfford {
			running = running.Sub(p.Amount)
		}
		items = append(items, AffordabilityItem{Purchase: p, CanAfford: canAfford, Remaining: running})
	}
	return items
}

// =============================================================================
// SPENDING MUTATIONS
// =============================================================================

// AddSpending records a purchase.
func (a *Aggregate) AddSpending(name string, amount decimal.Decimal, date calendar.Date) (*SpendingEvent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "required"}
	}
	ev := SpendingEvent{ID: a.NextID(), Name: name, Amount: amount, Date: date}
	a.Spending = append(a.Spending, ev)
	return &ev, nil
}

// EditSpending updates name and amount. The date is fixed at creation.
func (a *Aggregate) EditSpending(id int64, name string, amount decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	for i := range a.Spending {
		if a.Spending[i].ID == id {
			a.Spending[i].Name = name
			a.Spending[i].Amount = amount
			return nil
		}
	}
	return ErrEntryNotFound
}

// DeleteSpending removes a spending event.
func (a *Aggregate) DeleteSpending(id int64) error {
	for i := range a.Spending {
		if a.Spending[i].ID == id {
			a.Spending = append(a.Spending[:i], a.Spending[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// =============================================================================
// PROPOSED PURCHASE MUTATIONS
// =============================================================================

// AddProposed appends a purchase to the end of the priority list.
func (a *Aggregate) AddProposed(name string, amount decimal.Decimal) (*ProposedPurchase, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	p := ProposedPurchase{ID: a.NextID(), Name: name, Amount: amount}
	a.Proposed = append(a.Proposed, p)
	return &p, nil
}

// EditProposed updates a proposed purchase in place (its position in the
// priority list is preserved).
func (a *Aggregate) EditProposed(id int64, name string, amount decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	for i := range a.Proposed {
		if a.Proposed[i].ID == id {
			a.Proposed[i].Name = name
			a.Proposed[i].Amount = amount
			return nil
		}
	}
	return ErrEntryNotFound
}

// DeleteProposed removes a proposed purchase.
func (a *Aggregate) DeleteProposed(id int64) error {
	for i := range a.Proposed {
		if a.Proposed[i].ID == id {
			a.Proposed = append(a.Proposed[:i], a.Proposed[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}
