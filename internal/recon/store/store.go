package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/recon"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectPeriodColumns = `
	id, account_id, year, month, statement_balance,
	cleared_count, total_count, cleared_balance, cleared_percent, difference,
	finalized, finalized_at, created_at, updated_at
`

func scanPeriod(row *sql.Row) (*recon.Period, error) {
	var p recon.Period

	var (
		month      int
		statement  sql.NullInt64
		difference sql.NullInt64
	)

	err := row.Scan(
		&p.ID, &p.AccountID, &p.Year, &month, &statement,
		&p.ClearedCount, &p.TotalCount, &p.ClearedBalance, &p.ClearedPercent, &difference,
		&p.Finalized, &p.FinalizedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Month = time.Month(month)

	if statement.Valid {
		p.StatementBalance = &statement.Int64
	}

	if difference.Valid {
		p.Difference = &difference.Int64
	}

	return &p, nil
}

// GetOrCreatePeriod upserts the period row; periods come into existence
// lazily on the first stats query.
func (s *Store) GetOrCreatePeriod(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (*recon.Period, error) {
	query := `
		INSERT INTO reconciliation_periods (account_id, year, month, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id, year, month) DO UPDATE SET account_id = EXCLUDED.account_id
		RETURNING ` + selectPeriodColumns

	period, err := scanPeriod(s.db.QueryRowContext(ctx, query, accountID, year, int(month)))
	if err != nil {
		return nil, fmt.Errorf("getting period: %w", err)
	}

	return period, nil
}

func (s *Store) IsFinalized(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (bool, error) {
	query := `
		SELECT finalized FROM reconciliation_periods
		WHERE account_id = $1 AND year = $2 AND month = $3`

	var finalized bool

	err := s.db.QueryRowContext(ctx, query, accountID, year, int(month)).Scan(&finalized)
	if err != nil {
		if err == sql.ErrNoRows {
			// No period row yet means nothing was ever finalized.
			return false, nil
		}

		return false, fmt.Errorf("checking period state: %w", err)
	}

	return finalized, nil
}

// AggregateUnits rolls up matchable units dated in [from, to):
// non-split transactions plus allocations of split parents.
func (s *Store) AggregateUnits(ctx context.Context, accountID uuid.UUID, from, to time.Time) (recon.Aggregate, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'matched') AS cleared,
			COALESCE(SUM(amount) FILTER (WHERE status = 'matched'), 0) AS cleared_balance
		FROM (
			SELECT t.status, t.amount FROM bank_transactions t
			WHERE t.account_id = $1 AND t.status <> 'split' AND t.date >= $2 AND t.date < $3
			UNION ALL
			SELECT a.status, a.amount FROM split_allocations a
			JOIN bank_transactions t ON t.id = a.transaction_id
			WHERE t.account_id = $1 AND t.date >= $2 AND t.date < $3
		) units`

	var agg recon.Aggregate

	err := s.db.QueryRowContext(ctx, query, accountID, from, to).
		Scan(&agg.TotalCount, &agg.ClearedCount, &agg.ClearedBalance)
	if err != nil {
		return recon.Aggregate{}, fmt.Errorf("aggregating units: %w", err)
	}

	return agg, nil
}

func (s *Store) SaveStats(ctx context.Context, period *recon.Period) error {
	query := `
		UPDATE reconciliation_periods
		SET cleared_count = $2, total_count = $3, cleared_balance = $4,
		    cleared_percent = $5, difference = $6, updated_at = NOW()
		WHERE id = $1`

	var difference sql.NullInt64
	if period.Difference != nil {
		difference = sql.NullInt64{Int64: *period.Difference, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, query,
		period.ID, period.ClearedCount, period.TotalCount, period.ClearedBalance,
		period.ClearedPercent, difference); err != nil {
		return fmt.Errorf("saving period stats: %w", err)
	}

	return nil
}

func (s *Store) SetStatementBalance(ctx context.Context, periodID uuid.UUID, balance int64) error {
	query := `
		UPDATE reconciliation_periods
		SET statement_balance = $2, updated_at = NOW()
		WHERE id = $1 AND NOT finalized`

	res, err := s.db.ExecContext(ctx, query, periodID, balance)
	if err != nil {
		return fmt.Errorf("setting statement balance: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return recon.ErrPeriodFinalized
	}

	return nil
}

func (s *Store) MarkFinalized(ctx context.Context, periodID uuid.UUID) error {
	query := `
		UPDATE reconciliation_periods
		SET finalized = TRUE, finalized_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND NOT finalized`

	res, err := s.db.ExecContext(ctx, query, periodID)
	if err != nil {
		return fmt.Errorf("finalizing period: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return match.ErrConflict
	}

	return nil
}

func (s *Store) MarkReopened(ctx context.Context, periodID uuid.UUID) error {
	query := `
		UPDATE reconciliation_periods
		SET finalized = FALSE, finalized_at = NULL, updated_at = NOW()
		WHERE id = $1 AND finalized`

	res, err := s.db.ExecContext(ctx, query, periodID)
	if err != nil {
		return fmt.Errorf("reopening period: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return recon.ErrNotFinalized
	}

	return nil
}
