package audit

import "context"

// Store persists audit entries. Append-only: implementations expose no
// update or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error

	// List returns entries newest first, narrowed by filter, capped at
	// limit (a non-positive limit applies the default).
	List(ctx context.Context, filter Filter, limit int) ([]Entry, error)
}

// DefaultListLimit caps unbounded audit queries.
const DefaultListLimit = 100
