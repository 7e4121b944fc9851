package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/account"
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

const selectAccountColumns = `
	a.id, a.entity_id, a.bank_name, a.account_number_masked, a.currency,
	a.current_balance, a.active, a.last_synced_at, a.last_sync_status,
	a.created_at, a.updated_at
`

func scanAccount(s scanner) (*account.Account, error) {
	var acct account.Account

	var syncStatus sql.NullString

	if err := s.Scan(
		&acct.ID, &acct.EntityID, &acct.BankName, &acct.AccountNumberMasked, &acct.Currency,
		&acct.CurrentBalance, &acct.Active, &acct.LastSyncedAt, &syncStatus,
		&acct.CreatedAt, &acct.UpdatedAt,
	); err != nil {
		return nil, err
	}

	acct.LastSyncStatus = syncStatus.String

	return &acct, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM bank_accounts a WHERE a.id = $1`

	acct, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return acct, nil
}

func (s *Store) ListAccounts(ctx context.Context, entityID *uuid.UUID) ([]*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM bank_accounts a WHERE a.active`

	var args []any

	if entityID != nil {
		query += " AND a.entity_id = $1"
		args = append(args, *entityID)
	}

	query += " ORDER BY a.bank_name, a.account_number_masked"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account

	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}

		accounts = append(accounts, acct)
	}

	return accounts, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, acct *account.Account) error {
	query := `
		INSERT INTO bank_accounts
			(entity_id, bank_name, account_number_masked, currency, current_balance, active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW())
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		acct.EntityID, acct.BankName, acct.AccountNumberMasked, acct.Currency, acct.CurrentBalance,
	).Scan(&acct.ID, &acct.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}

func (s *Store) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bank_accounts SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivating account: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrNotFound
	}

	return nil
}
