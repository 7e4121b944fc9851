package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Account is one connected external bank account. Accounts are never
// hard-deleted; integration teardown deactivates them.
type Account struct {
	ID                  uuid.UUID
	EntityID            uuid.UUID
	BankName            string
	AccountNumberMasked string
	Currency            string

	// CurrentBalance is a cache in minor units, refreshed on each sync.
	CurrentBalance int64

	Active         bool
	LastSyncedAt   *time.Time
	LastSyncStatus string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

var ErrNotFound = errors.New("account not found")
