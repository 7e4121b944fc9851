package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetUnit(ctx context.Context, ref transaction.UnitRef) (*match.Unit, error) {
	var query string

	switch ref.Kind {
	case transaction.UnitTransaction:
		query = `
			SELECT t.account_id, t.date, t.amount, t.description, t.status, t.version
			FROM bank_transactions t
			WHERE t.id = $1`
	case transaction.UnitAllocation:
		// An allocation inherits its date from the parent transaction.
		query = `
			SELECT t.account_id, t.date, a.amount, a.description, a.status, a.version
			FROM split_allocations a
			JOIN bank_transactions t ON t.id = a.transaction_id
			WHERE a.id = $1`
	default:
		return nil, transaction.ErrNotFound
	}

	unit := match.Unit{Ref: ref}

	var statusStr string

	err := s.db.QueryRowContext(ctx, query, ref.ID).Scan(
		&unit.AccountID, &unit.Date, &unit.Amount, &unit.Descriptor, &statusStr, &unit.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting unit: %w", err)
	}

	unit.Status = transaction.Status(statusStr)

	return &unit, nil
}

func (s *Store) CreateMatch(ctx context.Context, m *match.Match, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning match tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.flipUnit(ctx, tx, m.Unit, expectedVersion, transaction.StatusUnmatched, transaction.StatusMatched); err != nil {
		return err
	}

	query := `
		INSERT INTO matches (unit_kind, unit_id, doc_kind, doc_id, auto, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		string(m.Unit.Kind), m.Unit.ID, string(m.Doc.Kind), m.Doc.ID, m.Auto, m.Score,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing match: %w", err)
	}

	return nil
}

func (s *Store) VoidMatch(ctx context.Context, ref transaction.UnitRef, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning unmatch tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE matches SET voided_at = NOW()
		WHERE unit_kind = $1 AND unit_id = $2 AND voided_at IS NULL`,
		string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("voiding match: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return match.ErrNotMatched
	}

	if err := s.flipUnit(ctx, tx, ref, expectedVersion, transaction.StatusMatched, transaction.StatusUnmatched); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing unmatch: %w", err)
	}

	return nil
}

// flipUnit transitions the unit between match states with an optimistic
// version check. Exactly one concurrent caller for a given version can
// succeed; the rest learn whether they lost to a match (ErrAlreadyMatched)
// or to some other mutation (ErrConflict).
func (s *Store) flipUnit(ctx context.Context, tx *sql.Tx, ref transaction.UnitRef, expectedVersion int64, from, to transaction.Status) error {
	table := "bank_transactions"
	if ref.Kind == transaction.UnitAllocation {
		table = "split_allocations"
	}

	query := fmt.Sprintf(`
		UPDATE %s SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND status = $4`, table)

	res, err := tx.ExecContext(ctx, query, string(to), ref.ID, expectedVersion, string(from))
	if err != nil {
		return fmt.Errorf("updating unit status: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var status string

	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT status FROM %s WHERE id = $1", table), ref.ID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("inspecting unit status: %w", err)
	}

	if transaction.Status(status) == transaction.StatusMatched && to == transaction.StatusMatched {
		return match.ErrAlreadyMatched
	}

	return match.ErrConflict
}

func (s *Store) ListUnmatchedUnits(ctx context.Context, accountID uuid.UUID) ([]*match.Unit, error) {
	// Oldest first so earlier transactions win contested documents
	// during auto-match; id ascending keeps the order stable.
	query := `
		SELECT kind, id, date, amount, descriptor, version FROM (
			SELECT 'transaction' AS kind, t.id, t.date, t.amount, t.description AS descriptor, t.version
			FROM bank_transactions t
			WHERE t.account_id = $1 AND t.status = 'unmatched'
			UNION ALL
			SELECT 'allocation' AS kind, a.id, t.date, a.amount, a.description AS descriptor, a.version
			FROM split_allocations a
			JOIN bank_transactions t ON t.id = a.transaction_id
			WHERE t.account_id = $1 AND a.status = 'unmatched'
		) units
		ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing unmatched units: %w", err)
	}
	defer rows.Close()

	var units []*match.Unit

	for rows.Next() {
		var (
			unit match.Unit
			kind string
		)

		if err := rows.Scan(&kind, &unit.Ref.ID, &unit.Date, &unit.Amount, &unit.Descriptor, &unit.Version); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}

		unit.Ref.Kind = transaction.UnitKind(kind)
		unit.AccountID = accountID
		unit.Status = transaction.StatusUnmatched
		units = append(units, &unit)
	}

	return units, rows.Err()
}

// WithAccountLock serializes fn against other callers for the same
// account using a session-scoped postgres advisory lock. The lock key
// is derived from the account id, so other accounts are unaffected.
func (s *Store) WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	key := accountLockKey(accountID)

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		return fmt.Errorf("acquiring account lock: %w", err)
	}

	defer func() {
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", key)
	}()

	return fn(ctx)
}

func accountLockKey(accountID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(accountID[:])

	return int64(h.Sum64())
}
