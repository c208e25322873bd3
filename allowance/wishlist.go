/*
wishlist.go - Wishlist items, categories, and moves to/from proposed

PURPOSE:
  The wishlist is the long-term parking lot for purchases; the proposed
  list is the short-term priority queue. Items move between them, and
  wishlist items are partitioned into categories.

THE UNASSIGNED SENTINEL:
  Category ID 1 ("Unassigned") always exists. It cannot be deleted, and
  deleting any other category reassigns that category's items to it, so a
  wishlist item always has a valid category.

MOVE SEMANTICS:
  Proposed -> wishlist removes the proposed item and files the new
  wishlist item under Unassigned. Wishlist -> proposed COPIES the item;
  the wishlist entry stays put. The asymmetry is intentional: the
  wishlist is the durable record, the proposed list is scratch space.
*/
package allowance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WISHLIST ITEMS
// =============================================================================

// AddWishlistItem files a new item under an existing category.
func (a *Aggregate) AddWishlistItem(name string, amount decimal.Decimal, categoryID int64) (*WishlistItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if a.category(categoryID) == nil {
		return nil, ErrCategoryNotFound
	}
	item := WishlistItem{ID: a.NextID(), Name: name, Amount: amount, CategoryID: categoryID}
	a.Wishlist = append(a.Wishlist, item)
	return &item, nil
}

// EditWishlistItem updates name and amount.
func (a *Aggregate) EditWishlistItem(id int64, name string, amount decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	for i := range a.Wishlist {
		if a.Wishlist[i].ID == id {
			a.Wishlist[i].Name = name
			a.Wishlist[i].Amount = amount
			return nil
		}
	}
	return ErrEntryNotFound
}

// DeleteWishlistItem removes an item.
func (a *Aggregate) DeleteWishlistItem(id int64) error {
	for i := range a.Wishlist {
		if a.Wishlist[i].ID == id {
			a.Wishlist = append(a.Wishlist[:i], a.Wishlist[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// ChangeItemCategory refiles an item under another existing category.
func (a *Aggregate) ChangeItemCategory(itemID, categoryID int64) error {
	if a.category(categoryID) == nil {
		return ErrCategoryNotFound
	}
	for i := range a.Wishlist {
		if a.Wishlist[i].ID == itemID {
			a.Wishlist[i].CategoryID = categoryID
			return nil
		}
	}
	return ErrEntryNotFound
}

// =============================================================================
// MOVES
// =============================================================================

// MoveProposedToWishlist converts a proposed purchase into a wishlist
// item under Unassigned and drops it from the proposed list.
func (a *Aggregate) MoveProposedToWishlist(id int64) (*WishlistItem, error) {
	for i := range a.Proposed {
		if a.Proposed[i].ID == id {
			p := a.Proposed[i]
			item := WishlistItem{
				ID:         a.NextID(),
				Name:       p.Name,
				Amount:     p.Amount,
				CategoryID: UnassignedCategoryID,
			}
			a.Wishlist = append(a.Wishlist, item)
			a.Proposed = append(a.Proposed[:i], a.Proposed[i+1:]...)
			return &item, nil
		}
	}
	return nil, ErrEntryNotFound
}

// MoveWishlistToProposed copies a wishlist item onto the end of the
// proposed list. The wishlist entry is kept; see the file comment.
func (a *Aggregate) MoveWishlistToProposed(id int64) (*ProposedPurchase, error) {
	for i := range a.Wishlist {
		if a.Wishlist[i].ID == id {
			item := a.Wishlist[i]
			p := ProposedPurchase{ID: a.NextID(), Name: item.Name, Amount: item.Amount}
			a.Proposed = append(a.Proposed, p)
			return &p, nil
		}
	}
	return nil, ErrEntryNotFound
}

// =============================================================================
// CATEGORIES
// =============================================================================

// AddCategory appends a category at the end of the display order.
func (a *Aggregate) AddCategory(name string) (*WishlistCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	cat := WishlistCategory{
		ID:    a.NextID(),
		Name:  name,
		Order: len(a.WishlistCategories),
	}
	a.WishlistCategories = append(a.WishlistCategories, cat)
	return &cat, nil
}

// RenameCategory updates a category's name (Unassigned included - only
// deletion is protected).
func (a *Aggregate) RenameCategory(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	cat := a.category(id)
	if cat == nil {
		return ErrCategoryNotFound
	}
	cat.Name = name
	return nil
}

// DeleteCategory removes a category, reassigning its items to Unassigned.
// The Unassigned sentinel itself cannot be deleted.
func (a *Aggregate) DeleteCategory(id int64) error {
	if id == UnassignedCategoryID {
		return ErrProtectedCategory
	}
	idx := -1
	for i := range a.WishlistCategories {
		if a.WishlistCategories[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrCategoryNotFound
	}

	for i := range a.Wishlist {
		if a.Wishlist[i].CategoryID == id {
			a.Wishlist[i].CategoryID = UnassignedCategoryID
		}
	}
	a.WishlistCategories = append(a.WishlistCategories[:idx], a.WishlistCategories[idx+1:]...)
	return nil
}

func (a *Aggregate) category(id int64) *WishlistCategory {
	for i := range a.WishlistCategories {
		if a.WishlistCategories[i].ID == id {
			return &a.WishlistCategories[i]
		}
	}
	return nil
}
