package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/split"
	"github.com/clearbooks/reconcile/internal/transaction"
	txstore "github.com/clearbooks/reconcile/internal/transaction/store"
)

// Store persists split allocations. Read paths are shared with the
// transaction store; this type owns the mutating flows.
type Store struct {
	db    *sql.DB
	reads *txstore.Store
}

func New(db *sql.DB) *Store {
	return &Store{db: db, reads: txstore.New(db)}
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.BankTransaction, error) {
	return s.reads.GetTransaction(ctx, id)
}

func (s *Store) ListAllocations(ctx context.Context, transactionID uuid.UUID) ([]*transaction.SplitAllocation, error) {
	return s.reads.ListAllocations(ctx, transactionID)
}

func (s *Store) CreateAllocations(ctx context.Context, transactionID uuid.UUID, allocs []*transaction.SplitAllocation, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning split tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bank_transactions SET status = 'split', version = version + 1
		WHERE id = $1 AND version = $2 AND status = 'unmatched'`,
		transactionID, expectedVersion)
	if err != nil {
		return fmt.Errorf("marking transaction split: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return match.ErrConflict
	}

	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString(`
		INSERT INTO split_allocations (transaction_id, amount, description, status, version, created_at)
		VALUES `)

	for i, a := range allocs {
		if i > 0 {
			sb.WriteString(", ")
		}

		base := i * 3
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, 'unmatched', 1, NOW())", base+1, base+2, base+3))
		args = append(args, transactionID, a.Amount, a.Description)
	}

	sb.WriteString(" RETURNING id, created_at")

	rows, err := tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("inserting allocations: %w", err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&allocs[i].ID, &allocs[i].CreatedAt); err != nil {
			return fmt.Errorf("scanning allocation id: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("inserting allocations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing split: %w", err)
	}

	return nil
}

func (s *Store) RemoveAllocations(ctx context.Context, transactionID uuid.UUID, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning unsplit tx: %w", err)
	}
	defer tx.Rollback()

	// Lock the children before re-checking: a concurrent match of an
	// allocation commits between the service's read and this point, and
	// an unlocked count would let the delete remove a matched row while
	// its match stays active. FOR UPDATE waits out any in-flight match
	// and pins the statuses until commit.
	rows, err := tx.QueryContext(ctx, `
		SELECT status FROM split_allocations
		WHERE transaction_id = $1
		FOR UPDATE`, transactionID)
	if err != nil {
		return fmt.Errorf("locking allocations: %w", err)
	}

	var (
		total        int
		stillMatched bool
	)

	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			rows.Close()
			return fmt.Errorf("scanning allocation status: %w", err)
		}

		if transaction.Status(status) == transaction.StatusMatched {
			stillMatched = true
		}

		total++
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("locking allocations: %w", err)
	}

	rows.Close()

	if stillMatched {
		return split.ErrSplitsStillMatched
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM split_allocations WHERE transaction_id = $1 AND status = 'unmatched'`, transactionID)
	if err != nil {
		return fmt.Errorf("deleting allocations: %w", err)
	}

	if n, _ := res.RowsAffected(); n != int64(total) {
		return split.ErrSplitsStillMatched
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE bank_transactions SET status = 'unmatched', version = version + 1
		WHERE id = $1 AND version = $2 AND status = 'split'`,
		transactionID, expectedVersion)
	if err != nil {
		return fmt.Errorf("restoring transaction: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return match.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing unsplit: %w", err)
	}

	return nil
}
