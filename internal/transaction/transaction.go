package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the match lifecycle state of a bank transaction.
type Status string

const (
	StatusUnmatched Status = "unmatched"
	StatusMatched   Status = "matched"
	StatusSplit     Status = "split"
)

// UnitKind distinguishes the two kinds of matchable units.
type UnitKind string

const (
	UnitTransaction UnitKind = "transaction"
	UnitAllocation  UnitKind = "allocation"
)

// UnitRef identifies a matchable unit: a bank transaction or one of its
// split allocations.
type UnitRef struct {
	Kind UnitKind
	ID   uuid.UUID
}

func TransactionRef(id uuid.UUID) UnitRef {
	return UnitRef{Kind: UnitTransaction, ID: id}
}

func AllocationRef(id uuid.UUID) UnitRef {
	return UnitRef{Kind: UnitAllocation, ID: id}
}

// BankTransaction is one imported bank ledger line. Amount is in signed
// minor units (cents). ExternalID is unique per account and makes
// re-imports idempotent.
type BankTransaction struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	ExternalID  string
	Date        time.Time
	Description string
	Merchant    string
	Category    string
	Amount      int64
	Status      Status

	// SuggestedAccount and SuggestedScore carry the feed provider's
	// categorisation hint, when present. Score is in [0,1].
	SuggestedAccount string
	SuggestedScore   float64

	// Version guards concurrent match/split mutations.
	Version int64

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// SplitAllocation is one slice of a split transaction. Allocations of a
// split parent are matched independently; their amounts always sum to
// the parent amount.
type SplitAllocation struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	Amount        int64
	Description   string
	Status        Status
	Version       int64
	CreatedAt     time.Time
}

// Stats summarises match progress for one bank account. Split parents
// are excluded; their allocations count as units instead.
type Stats struct {
	Total            int
	Matched          int
	Unmatched        int
	MatchRatePercent int
}

var ErrNotFound = errors.New("transaction not found")
