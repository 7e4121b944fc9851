package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetJournalEntry(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	query := `SELECT id, entry_no, date, memo, amount, created_at FROM journal_entries WHERE id = $1`

	var e ledger.JournalEntry

	err := s.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.EntryNo, &e.Date, &e.Memo, &e.Amount, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting journal entry: %w", err)
	}

	return &e, nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	query := `SELECT id, name, date, amount, url, created_at FROM ledger_documents WHERE id = $1`

	var d ledger.Document

	var url sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.Date, &d.Amount, &url, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	d.URL = url.String

	return &d, nil
}

func (s *Store) CreateJournalEntry(ctx context.Context, entry *ledger.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (entry_no, date, memo, amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query, entry.EntryNo, entry.Date, entry.Memo, entry.Amount).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating journal entry: %w", err)
	}

	return nil
}

func (s *Store) CreateDocument(ctx context.Context, doc *ledger.Document) error {
	query := `
		INSERT INTO ledger_documents (name, date, amount, url, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`

	var url sql.NullString
	if doc.URL != "" {
		url = sql.NullString{String: doc.URL, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, query, doc.Name, doc.Date, doc.Amount, url).
		Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}

	return nil
}

// ListOpenCandidates returns journal entries and documents inside the
// window that are not referenced by an active match.
func (s *Store) ListOpenCandidates(ctx context.Context, from, to time.Time) ([]ledger.Candidate, error) {
	query := `
		SELECT kind, id, amount, date, descriptor FROM (
			SELECT 'journal_entry' AS kind, je.id, je.amount, je.date, je.memo AS descriptor
			FROM journal_entries je
			WHERE je.date BETWEEN $1 AND $2
			  AND NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.doc_kind = 'journal_entry' AND m.doc_id = je.id AND m.voided_at IS NULL
			  )
			UNION ALL
			SELECT 'document' AS kind, d.id, d.amount, d.date, d.name AS descriptor
			FROM ledger_documents d
			WHERE d.date BETWEEN $1 AND $2
			  AND NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.doc_kind = 'document' AND m.doc_id = d.id AND m.voided_at IS NULL
			  )
		) candidates
		ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	var candidates []ledger.Candidate

	for rows.Next() {
		var (
			c    ledger.Candidate
			kind string
		)

		if err := rows.Scan(&kind, &c.Ref.ID, &c.Amount, &c.Date, &c.Descriptor); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}

		c.Ref.Kind = ledger.RefKind(kind)
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}
