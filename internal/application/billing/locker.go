package billing

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// EntityLocker serializes mutations on the same entity. Lock blocks until
// every key is held or ctx is done; the returned release frees them all.
// Implementations acquire keys in sorted order so overlapping key sets
// cannot deadlock.
type EntityLocker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// SessionKey is the lock key for a session
func SessionKey(id uuid.UUID) string { return "session:" + id.String() }

// MemberKey is the lock key for a member's wallet and totals
func MemberKey(id uuid.UUID) string { return "member:" + id.String() }

// TableKey is the lock key for a table
func TableKey(id uuid.UUID) string { return "table:" + id.String() }

// sortedIDs returns a copy of ids in ascending string order, the order row
// locks are taken in
func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := append([]uuid.UUID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
