package match

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/ledger"
	"github.com/clearbooks/reconcile/internal/transaction"
)

// Match links one matchable unit to one ledger document. A voided match
// is kept for audit; only matches with VoidedAt nil are active, and a
// unit has at most one of those at any time.
type Match struct {
	ID   uuid.UUID
	Unit transaction.UnitRef
	Doc  ledger.DocumentRef

	// Auto marks matches committed by auto-match; Score is the
	// suggestion confidence it was accepted at (0 for manual matches).
	Auto  bool
	Score float64

	CreatedAt time.Time
	VoidedAt  *time.Time
}

// Unit is the matcher's view of a matchable unit: enough to locate it,
// score it, and serialize mutations against it.
type Unit struct {
	Ref        transaction.UnitRef
	AccountID  uuid.UUID
	Date       time.Time
	Amount     int64
	Descriptor string
	Status     transaction.Status
	Version    int64
}

var (
	// ErrAlreadyMatched means the unit has an active match; the caller
	// must unmatch explicitly before matching again.
	ErrAlreadyMatched = errors.New("unit already has an active match")
	// ErrNotMatched means unmatch was called on a unit with no active
	// match. This is an error, not a no-op, to surface caller bugs.
	ErrNotMatched = errors.New("unit has no active match")
	// ErrTransactionSplit means the parent of a split was targeted
	// directly; its allocations are the matchable units.
	ErrTransactionSplit = errors.New("transaction has been split; match its allocations instead")
	// ErrConflict means a concurrent mutation won the race.
	ErrConflict = errors.New("concurrent modification, retry")
)

type AutoMatchResult struct {
	MatchedCount int
	Skipped      int
}
