/*
handlers.go - HTTP handlers for the allowance engine

PURPOSE:
  Exposes the aggregate's operations over REST. Every handler follows the
  same shape: load the user's aggregate (initializing defaults on first
  contact), apply one domain operation, save, respond.

REQUEST FLOW:
  1. Load aggregate (ErrUserNotFound -> NewAggregate + immediate save)
  2. Parse and validate input
  3. Call the domain operation
  4. Save via the Gateway
  5. Serialize response

ERROR HANDLING:
  Domain errors map to HTTP statuses:
  - 400: validation failures (bad dates, non-positive amounts, bad IDs)
  - 404: unknown entry/category IDs
  - 409: duplicate log date, protected category
  - 502: gateway failure - the mutation applied in memory but is not
         durable; the response says so
  No handler panics; Recoverer is a backstop only.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/allowance-engine/allowance"
	"github.com/warp/allowance-engine/calendar"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Gateway allowance.Gateway
	Clock   calendar.Clock
	Logger  zerolog.Logger
}

// NewHandler wires a handler with its gateway and clock.
func NewHandler(gw allowance.Gateway, clock calendar.Clock, logger zerolog.Logger) *Handler {
	return &Handler{Gateway: gw, Clock: clock, Logger: logger}
}

// loadOrInit loads the user's aggregate. A user with no saved state gets
// the default aggregate, persisted immediately so the first mutation has
// something to build on.
func (h *Handler) loadOrInit(r *http.Request) (*allowance.Aggregate, string, error) {
	userID := chi.URLParam(r, "userID")
	agg, err := h.Gateway.Load(r.Context(), userID)
	if errors.Is(err, allowance.ErrUserNotFound) {
		agg = allowance.NewAggregate(h.Clock.Today())
		if saveErr := h.Gateway.Save(r.Context(), userID, agg); saveErr != nil {
			return nil, userID, saveErr
		}
		return agg, userID, nil
	}
	return agg, userID, err
}

// mutate is the common shape of every write handler: load, apply, save.
// fn's result is the response body; nil means a plain ok.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*allowance.Aggregate) (any, error)) {
	agg, userID, err := h.loadOrInit(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out, err := fn(agg)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Gateway.Save(r.Context(), userID, agg); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if out == nil {
		out = map[string]string{"status": "ok"}
	}
	writeJSON(w, status, out)
}

// =============================================================================
// SUMMARY AND SETTINGS
// =============================================================================

// GetSummary reconciles the log and returns the balance view. This is
// the display-refresh entry point; reconciliation runs here so a user
// opening the app after days away gets their accruals backfilled.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	agg, userID, err := h.loadOrInit(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	added := agg.Reconcile(h.Clock.Today())
	if added > 0 {
		if err := h.Gateway.Save(r.Context(), userID, agg); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	available := agg.AvailableBalance()
	writeJSON(w, http.StatusOK, SummaryDTO{
		DailyAllowance:   agg.DailyAllowance,
		StartDate:        agg.StartDate,
		LastLogCheck:     agg.LastLogCheck,
		TotalAccumulated: agg.TotalAccumulated,
		TotalSpent:       agg.TotalSpent(),
		AvailableBalance: available,
		BalanceColor:     agg.ColorScheme.BalanceColor(available),
		EntriesAdded:     added,
	})
}

// UpdateSettings sets the daily rate and start date.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		startDate, err := parseDate("startDate", req.StartDate)
		if err != nil {
			return nil, err
		}
		if err := agg.UpdateSettings(req.DailyAllowance, startDate, h.Clock.Today()); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// =============================================================================
// ACCRUAL LOG
// =============================================================================

// GetLog reconciles, then returns the full log ascending by date.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	agg, userID, err := h.loadOrInit(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if added := agg.Reconcile(h.Clock.Today()); added > 0 {
		if err := h.Gateway.Save(r.Context(), userID, agg); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, agg.AllowanceLog)
}

// AddLogEntry inserts a manual accrual entry.
func (h *Handler) AddLogEntry(w http.ResponseWriter, r *http.Request) {
	var req LogEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(agg *allowance.Aggregate) (any, error) {
		date, err := parseDate("date", req.Date)
		if err != nil {
			return nil, err
		}
		return agg.AddLogEntry(date, req.Amount)
	})
}

// EditLogEntry rewrites a log entry's date and amount.
func (h *Handler) EditLogEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req LogEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		date, err := parseDate("date", req.Date)
		if err != nil {
			return nil, err
		}
		return nil, agg.EditLogEntry(id, date, req.Amount)
	})
}

// DeleteLogEntry removes a log entry.
func (h *Handler) DeleteLogEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.DeleteLogEntry(id)
	})
}

// =============================================================================
// RATE HISTORY
// =============================================================================

// GetHistory returns rate-change events ascending by date.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	agg, _, err := h.loadOrInit(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg.AllowanceHistory)
}

// AddHistoryEntry back-fills a rate change.
func (h *Handler) AddHistoryEntry(w http.ResponseWriter, r *http.Request) {
	var req HistoryEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(agg *allowance.Aggregate) (any, error) {
		date, err := parseDate("date", req.Date)
		if err != nil {
			return nil, err
		}
		return agg.AddRateChange(date, req.Amount)
	})
}

// EditHistoryEntry updates a rate-change event. Past log entries keep
// their materialized amounts.
func (h *Handler) EditHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req HistoryEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		date, err := parseDate("date", req.Date)
		if err != nil {
			return nil, err
		}
		return nil, agg.EditRateChange(id, date, req.Amount)
	})
}

// DeleteHistoryEntry removes a rate-change event.
func (h *Handler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.DeleteRateChange(id)
	})
}

// =============================================================================
// SPENDING
// =============================================================================

// GetSpending returns all spending events.
func (h *Handler) GetSpending(w http.ResponseWriter, r *http.Request) {
	agg, _, err := h.loadOrInit(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg.Spending)
}

// AddSpending records a purchase.
func (h *Handler) AddSpending(w http.ResponseWriter, r *http.Request) {
	var req SpendingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(agg *allowance.Aggregate) (any, error) {
		date, err := parseDate("date", req.Date)
		if err != nil {
			return nil, err
		}
		return agg.AddSpending(req.Name, req.Amount, date)
	})
}

// EditSpending updates a spending event's name and amount.
func (h *Handler) EditSpending(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req SpendingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.EditSpending(id, req.Name, req.Amount)
	})
}

// DeleteSpending removes a spending event.
func (h *Handler) DeleteSpending(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.DeleteSpending(id)
	})
}

// =============================================================================
// PROPOSED PURCHASES
// =============================================================================

// GetProposed returns the affordability projection in stored order.
func (h *Handler) GetProposed(w http.ResponseWriter, r *http.Request) {
	agg, _, err := h.loadOrInit(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	items := agg.AffordabilityProjection()
	dtos := make([]AffordabilityDTO, len(items))
	for i, item := range items {
		dtos[i] = AffordabilityDTO{
			ID:        item.Purchase.ID,
			Name:      item.Purchase.Name,
			Amount:    item.Purchase.Amount,
			CanAfford: item.CanAfford,
			Remaining: item.Remaining,
		}
	}
	writeJSON(w, http.StatusOK, ProposedListDTO{
		AvailableBalance: agg.AvailableBalance(),
		Items:            dtos,
	})
}

// AddProposed appends to the priority list.
func (h *Handler) AddProposed(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(agg *allowance.Aggregate) (any, error) {
		return agg.AddProposed(req.Name, req.Amount)
	})
}

// EditProposed updates a proposed purchase.
func (h *Handler) EditProposed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.EditProposed(id, req.Name, req.Amount)
	})
}

// DeleteProposed removes a proposed purchase.
func (h *Handler) DeleteProposed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.DeleteProposed(id)
	})
}

// MoveProposedToWishlist parks a proposed purchase on the wishlist.
func (h *Handler) MoveProposedToWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return agg.MoveProposedToWishlist(id)
	})
}

// =============================================================================
// WISHLIST
// =============================================================================

// GetWishlist returns items grouped by category in display order.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	agg, _, err := h.loadOrInit(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dto := WishlistDTO{Categories: make([]WishlistCategoryDTO, 0, len(agg.WishlistCategories))}
	for _, cat := range agg.WishlistCategories {
		catDTO := WishlistCategoryDTO{
			ID:      cat.ID,
			Name:    cat.Name,
			Visible: categoryVisible(agg, cat.ID),
			Items:   []allowance.WishlistItem{},
		}
		for _, item := range agg.Wishlist {
			if item.CategoryID == cat.ID {
				catDTO.Items = append(catDTO.Items, item)
			}
		}
		dto.Categories = append(dto.Categories, catDTO)
	}
	writeJSON(w, http.StatusOK, dto)
}

// AddWishlistItem files a new item under a category.
func (h *Handler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req WishlistItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(agg *allowance.Aggregate) (any, error) {
		return agg.AddWishlistItem(req.Name, req.Amount, req.CategoryID)
	})
}

// EditWishlistItem updates a wishlist item.
func (h *Handler) EditWishlistItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.EditWishlistItem(id, req.Name, req.Amount)
	})
}

// DeleteWishlistItem removes a wishlist item.
func (h *Handler) DeleteWishlistItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.DeleteWishlistItem(id)
	})
}

// ChangeItemCategory refiles a wishlist item.
func (h *Handler) ChangeItemCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req ChangeCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.ChangeItemCategory(id, req.CategoryID)
	})
}

// MoveWishlistToProposed copies a wishlist item into the proposed list.
func (h *Handler) MoveWishlistToProposed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return agg.MoveWishlistToProposed(id)
	})
}

// =============================================================================
// CATEGORIES
// =============================================================================

// AddCategory creates a wishlist category.
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(agg *allowance.Aggregate) (any, error) {
		return agg.AddCategory(req.Name)
	})
}

// RenameCategory renames a wishlist category.
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.RenameCategory(id, req.Name)
	})
}

// DeleteCategory deletes a category, reassigning items to Unassigned.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.DeleteCategory(id)
	})
}

// =============================================================================
// COLOR SCHEME
// =============================================================================

// AddColorRange adds a balance color band.
func (h *Handler) AddColorRange(w http.ResponseWriter, r *http.Request) {
	kind := allowance.RangeKind(chi.URLParam(r, "kind"))
	var req ColorRangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.AddColorRange(kind, req.Min, req.Max, req.Color)
	})
}

// EditColorRange replaces a band by index.
func (h *Handler) EditColorRange(w http.ResponseWriter, r *http.Request) {
	kind := allowance.RangeKind(chi.URLParam(r, "kind"))
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	var req ColorRangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.EditColorRange(kind, index, req.Min, req.Max, req.Color)
	})
}

// DeleteColorRange removes a band by index.
func (h *Handler) DeleteColorRange(w http.ResponseWriter, r *http.Request) {
	kind := allowance.RangeKind(chi.URLParam(r, "kind"))
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		return nil, agg.DeleteColorRange(kind, index)
	})
}

// =============================================================================
// VISIBILITY
// =============================================================================

// SetSectionVisibility toggles a display section.
func (h *Handler) SetSectionVisibility(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req VisibilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		if agg.SectionVisibility == nil {
			agg.SectionVisibility = map[string]bool{}
		}
		agg.SectionVisibility[name] = req.Visible
		return nil, nil
	})
}

// SetCategoryVisibility toggles a wishlist category's expansion state.
func (h *Handler) SetCategoryVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req VisibilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(agg *allowance.Aggregate) (any, error) {
		if agg.CategoryVisibility == nil {
			agg.CategoryVisibility = map[string]bool{}
		}
		agg.CategoryVisibility[strconv.FormatInt(id, 10)] = req.Visible
		return nil, nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func categoryVisible(agg *allowance.Aggregate, id int64) bool {
	v, ok := agg.CategoryVisibility[strconv.FormatInt(id, 10)]
	if !ok {
		return true // visible until explicitly collapsed
	}
	return v
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func parseDate(field, s string) (calendar.Date, error) {
	if s == "" {
		return "", &allowance.ValidationError{Field: field, Reason: "required"}
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return "", &allowance.ValidationError{Field: field, Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		valErr  *allowance.ValidationError
		dupErr  *allowance.DuplicateDateError
		persErr *allowance.PersistenceError
	)
	switch {
	case errors.As(err, &dupErr):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": dupErr.Error(),
			"date":  dupErr.Date.String(),
		})
	case errors.Is(err, allowance.ErrProtectedCategory):
		writeError(w, http.StatusConflict, "cannot delete the Unassigned category")
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": valErr.Error(),
			"field": valErr.Field,
		})
	case allowance.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &persErr):
		h.Logger.Error().Err(persErr).Msg("gateway failure")
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":  "storage unavailable",
			"detail": "change applied locally but not yet durable",
		})
	default:
		h.Logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
