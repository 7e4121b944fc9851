package recon

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Period tracks reconciliation progress for one bank account and one
// calendar month. It is created lazily on the first stats query and
// carries the last computed stats snapshot.
type Period struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Year      int
	Month     time.Month

	// StatementBalance is the user-entered statement ending balance in
	// minor units; nil until entered.
	StatementBalance *int64

	ClearedCount   int
	TotalCount     int
	ClearedBalance int64
	ClearedPercent int

	// Difference is statement balance minus cleared balance; nil while
	// no statement balance has been entered, which is distinct from a
	// perfectly balanced 0.
	Difference *int64

	Finalized   bool
	FinalizedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Eligibility is the period gate's verdict. Reason is human-readable
// and surfaced verbatim to the UI when not allowed.
type Eligibility struct {
	Allowed bool
	Reason  string
}

var (
	// ErrNotEligible blocks finalize while the gate predicate is false.
	ErrNotEligible = errors.New("period not eligible to finalize")
	// ErrPeriodFinalized blocks transaction mutations dated inside a
	// finalized period; reopen first.
	ErrPeriodFinalized = errors.New("period is finalized; reopen it first")
	// ErrNotFinalized means reopen was called on an open period.
	ErrNotFinalized = errors.New("period is not finalized")
)

// FormatCents renders a minor-unit amount as a dollar string for
// user-facing gate reasons.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
