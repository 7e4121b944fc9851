package transaction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*BankTransaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*BankTransaction, error)
	ListAllocations(ctx context.Context, transactionID uuid.UUID) ([]*SplitAllocation, error)
	GetAllocation(ctx context.Context, id uuid.UUID) (*SplitAllocation, error)
	GetStats(ctx context.Context, accountID uuid.UUID) (*Stats, error)

	BeginImport(ctx context.Context, accountID uuid.UUID) (ImportTx, error)
}

// ImportTx groups the statements of one import batch into a single
// database transaction.
type ImportTx interface {
	ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error)
	InsertTransactions(ctx context.Context, txs []*BankTransaction) error
	RefreshMetadata(ctx context.Context, rows []ImportRow) error
	UpdateAccountSync(ctx context.Context, balanceDelta int64, syncedAt time.Time) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ImportRow is one raw feed line as delivered by a bank sync or a CSV
// upload. Amount is a pointer so a missing value can be told apart from
// an actual zero.
type ImportRow struct {
	ExternalID       string
	Date             time.Time
	Description      string
	Merchant         string
	Category         string
	Amount           *int64
	SuggestedAccount string
	SuggestedScore   float64
}

func (r ImportRow) validate() error {
	if r.ExternalID == "" {
		return fmt.Errorf("missing external id")
	}
	if r.Date.IsZero() {
		return fmt.Errorf("missing date")
	}
	if r.Amount == nil {
		return fmt.Errorf("missing amount")
	}
	if r.SuggestedScore < 0 || r.SuggestedScore > 1 {
		return fmt.Errorf("suggested score %v outside [0,1]", r.SuggestedScore)
	}
	return nil
}

type SkippedRow struct {
	ExternalID string
	Reason     string
}

type ImportResult struct {
	Imported int
	Skipped  []SkippedRow
}

type ListFilter struct {
	AccountID uuid.UUID
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
}

// ImportBatch inserts new rows for the account and skips rows whose
// external id is already present. Malformed rows are skipped with a
// reason rather than failing the batch. Previously matched or split
// transactions keep their state; a re-sync only refreshes description
// and merchant metadata.
func (s *Service) ImportBatch(ctx context.Context, accountID uuid.UUID, rows []ImportRow) (*ImportResult, error) {
	result := &ImportResult{}
	if len(rows) == 0 {
		return result, nil
	}

	valid := make([]ImportRow, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if err := row.validate(); err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{ExternalID: row.ExternalID, Reason: err.Error()})
			continue
		}
		if seen[row.ExternalID] {
			result.Skipped = append(result.Skipped, SkippedRow{ExternalID: row.ExternalID, Reason: "duplicate external id in batch"})
			continue
		}
		seen[row.ExternalID] = true
		valid = append(valid, row)
	}

	if len(valid) == 0 {
		return result, nil
	}

	itx, err := s.repo.BeginImport(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	ids := make([]string, len(valid))
	for i, row := range valid {
		ids[i] = row.ExternalID
	}

	existing, err := itx.ExistingExternalIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find existing external ids: %w", err)
	}

	var (
		fresh     []*BankTransaction
		refreshes []ImportRow
		delta     int64
	)

	for _, row := range valid {
		if existing[row.ExternalID] {
			result.Skipped = append(result.Skipped, SkippedRow{ExternalID: row.ExternalID, Reason: "already imported"})
			refreshes = append(refreshes, row)
			continue
		}

		fresh = append(fresh, &BankTransaction{
			AccountID:        accountID,
			ExternalID:       row.ExternalID,
			Date:             row.Date,
			Description:      row.Description,
			Merchant:         row.Merchant,
			Category:         row.Category,
			Amount:           *row.Amount,
			Status:           StatusUnmatched,
			SuggestedAccount: row.SuggestedAccount,
			SuggestedScore:   row.SuggestedScore,
		})
		delta += *row.Amount
	}

	if len(fresh) > 0 {
		if err := itx.InsertTransactions(ctx, fresh); err != nil {
			return nil, fmt.Errorf("insert transactions: %w", err)
		}
	}

	if len(refreshes) > 0 {
		if err := itx.RefreshMetadata(ctx, refreshes); err != nil {
			return nil, fmt.Errorf("refresh metadata: %w", err)
		}
	}

	if err := itx.UpdateAccountSync(ctx, delta, s.now()); err != nil {
		return nil, fmt.Errorf("update account sync: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	result.Imported = len(fresh)

	return result, nil
}

// List returns transactions for an account ordered by date descending,
// id descending on equal dates.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*BankTransaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BankTransaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) Allocations(ctx context.Context, transactionID uuid.UUID) ([]*SplitAllocation, error) {
	return s.repo.ListAllocations(ctx, transactionID)
}

// Stats reports match progress for an account. MatchRatePercent is 0
// for an empty account rather than NaN.
func (s *Service) Stats(ctx context.Context, accountID uuid.UUID) (*Stats, error) {
	stats, err := s.repo.GetStats(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if stats.Total > 0 {
		stats.MatchRatePercent = int(math.Round(float64(stats.Matched) / float64(stats.Total) * 100))
	}
	return stats, nil
}
