package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTransactionColumns = `
	t.id, t.account_id, t.external_id, t.date, t.description, t.merchant, t.category,
	t.amount, t.status, t.suggested_account, t.suggested_score, t.version,
	t.created_at, t.updated_at
`

func scanTransaction(s scanner) (*transaction.BankTransaction, error) {
	var tx transaction.BankTransaction

	var statusStr string

	var merchant, category, suggested sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.AccountID, &tx.ExternalID, &tx.Date, &tx.Description, &merchant, &category,
		&tx.Amount, &statusStr, &suggested, &tx.SuggestedScore, &tx.Version,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Status = transaction.Status(statusStr)
	tx.Merchant = merchant.String
	tx.Category = category.String
	tx.SuggestedAccount = suggested.String

	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.BankTransaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM bank_transactions t WHERE t.id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.BankTransaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM bank_transactions t WHERE t.account_id = $1`

	args := []any{filter.AccountID}
	argIdx := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argIdx)
		args = append(args, string(*filter.Status))
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	// Stable ordering: date descending, id as tie-break on equal dates.
	query += " ORDER BY t.date DESC, t.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.BankTransaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

func (s *Store) ListAllocations(ctx context.Context, transactionID uuid.UUID) ([]*transaction.SplitAllocation, error) {
	query := `
		SELECT id, transaction_id, amount, description, status, version, created_at
		FROM split_allocations
		WHERE transaction_id = $1
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	defer rows.Close()

	var allocs []*transaction.SplitAllocation

	for rows.Next() {
		var a transaction.SplitAllocation

		var statusStr string

		if err := rows.Scan(&a.ID, &a.TransactionID, &a.Amount, &a.Description, &statusStr, &a.Version, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning allocation: %w", err)
		}

		a.Status = transaction.Status(statusStr)
		allocs = append(allocs, &a)
	}

	return allocs, rows.Err()
}

func (s *Store) GetAllocation(ctx context.Context, id uuid.UUID) (*transaction.SplitAllocation, error) {
	query := `
		SELECT id, transaction_id, amount, description, status, version, created_at
		FROM split_allocations
		WHERE id = $1`

	var a transaction.SplitAllocation

	var statusStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.TransactionID, &a.Amount, &a.Description, &statusStr, &a.Version, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting allocation: %w", err)
	}

	a.Status = transaction.Status(statusStr)

	return &a, nil
}

// GetStats counts matchable units: transactions that are not split,
// plus the allocations of split transactions.
func (s *Store) GetStats(ctx context.Context, accountID uuid.UUID) (*transaction.Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'matched') AS matched
		FROM (
			SELECT t.status FROM bank_transactions t
			WHERE t.account_id = $1 AND t.status <> 'split'
			UNION ALL
			SELECT a.status FROM split_allocations a
			JOIN bank_transactions t ON t.id = a.transaction_id
			WHERE t.account_id = $1
		) units`

	var stats transaction.Stats

	if err := s.db.QueryRowContext(ctx, query, accountID).Scan(&stats.Total, &stats.Matched); err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}

	stats.Unmatched = stats.Total - stats.Matched

	return &stats, nil
}

func (s *Store) BeginImport(ctx context.Context, accountID uuid.UUID) (transaction.ImportTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	return &importTx{tx: tx, accountID: accountID}, nil
}

type importTx struct {
	tx        *sql.Tx
	accountID uuid.UUID
}

func (i *importTx) ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error) {
	query := `
		SELECT external_id FROM bank_transactions
		WHERE account_id = $1 AND external_id = ANY($2)`

	rows, err := i.tx.QueryContext(ctx, query, i.accountID, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("querying external ids: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning external id: %w", err)
		}

		existing[id] = true
	}

	return existing, rows.Err()
}

func (i *importTx) InsertTransactions(ctx context.Context, txs []*transaction.BankTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString(`
		INSERT INTO bank_transactions
			(account_id, external_id, date, description, merchant, category, amount, status,
			 suggested_account, suggested_score, version, created_at)
		VALUES `)

	for idx, t := range txs {
		if idx > 0 {
			sb.WriteString(", ")
		}

		base := idx * 10
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, 1, NOW())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		args = append(args,
			t.AccountID, t.ExternalID, t.Date, t.Description,
			nullable(t.Merchant), nullable(t.Category),
			t.Amount, string(t.Status), nullable(t.SuggestedAccount), t.SuggestedScore)
	}

	if _, err := i.tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("inserting transactions: %w", err)
	}

	return nil
}

// RefreshMetadata updates description and merchant fields of rows that
// were re-synced. Match state and amount are left untouched.
func (i *importTx) RefreshMetadata(ctx context.Context, rows []transaction.ImportRow) error {
	query := `
		UPDATE bank_transactions
		SET description = $3, merchant = $4, category = $5, updated_at = NOW()
		WHERE account_id = $1 AND external_id = $2`

	for _, row := range rows {
		if _, err := i.tx.ExecContext(ctx, query,
			i.accountID, row.ExternalID, row.Description,
			nullable(row.Merchant), nullable(row.Category)); err != nil {
			return fmt.Errorf("refreshing metadata for %s: %w", row.ExternalID, err)
		}
	}

	return nil
}

func (i *importTx) UpdateAccountSync(ctx context.Context, balanceDelta int64, syncedAt time.Time) error {
	query := `
		UPDATE bank_accounts
		SET current_balance = current_balance + $2,
		    last_synced_at = $3,
		    last_sync_status = 'ok'
		WHERE id = $1`

	if _, err := i.tx.ExecContext(ctx, query, i.accountID, balanceDelta, syncedAt); err != nil {
		return fmt.Errorf("updating account sync state: %w", err)
	}

	return nil
}

func (i *importTx) Commit() error {
	return i.tx.Commit()
}

func (i *importTx) Rollback() error {
	return i.tx.Rollback()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
