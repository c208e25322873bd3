/*
store.go - Persistence gateway interface

PURPOSE:
  The engine treats storage as an external collaborator: the whole
  aggregate is one blob keyed by user identity, loaded once per request
  and saved after mutations. The interface is deliberately tiny - there
  is no partial update, because running totals and the watermark only
  make sense as a consistent whole.

FAILURE CONTRACT:
  Load returns ErrUserNotFound when no state exists; callers respond by
  building NewAggregate and saving it immediately. A failed Save is
  recoverable: the in-memory aggregate stays authoritative and the user
  is told the change is applied locally but not yet durable.

IMPLEMENTATIONS:
  - allowance/store: in-memory, for tests and dev
  - store/sqlite: production SQLite
*/
package allowance

import "context"

// Gateway persists aggregates keyed by user ID.
type Gateway interface {
	// Load returns the user's aggregate, or ErrUserNotFound.
	Load(ctx context.Context, userID string) (*Aggregate, error)

	// Save replaces the user's aggregate.
	Save(ctx context.Context, userID string, agg *Aggregate) error
}
