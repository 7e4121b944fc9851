package recon

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=recon
type Repository interface {
	GetOrCreatePeriod(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (*Period, error)
	IsFinalized(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (bool, error)

	// AggregateUnits counts and sums matchable units dated in
	// [from, to). Cleared units are those with an active match.
	AggregateUnits(ctx context.Context, accountID uuid.UUID, from, to time.Time) (Aggregate, error)

	SaveStats(ctx context.Context, period *Period) error
	SetStatementBalance(ctx context.Context, periodID uuid.UUID, balance int64) error

	// MarkFinalized flips the period to finalized; a period that is
	// already finalized is not updated and reported as a conflict.
	MarkFinalized(ctx context.Context, periodID uuid.UUID) error
	MarkReopened(ctx context.Context, periodID uuid.UUID) error
}

// Aggregate is the raw per-period rollup the stats derive from.
type Aggregate struct {
	ClearedCount   int
	TotalCount     int
	ClearedBalance int64
}

// Service is both the reconciliation ledger (cleared stats) and the
// period gate (finalize eligibility).
type Service struct {
	repo Repository

	// thresholdPercent and toleranceCents gate finalize; both are
	// deployment configuration, not constants.
	thresholdPercent int
	toleranceCents   int64
}

func NewService(repo Repository, thresholdPercent int, toleranceCents int64) *Service {
	return &Service{repo: repo, thresholdPercent: thresholdPercent, toleranceCents: toleranceCents}
}

func monthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	return from, from.AddDate(0, 1, 0)
}

// Recompute refreshes the period's stats snapshot from stored state and
// returns the period. It is idempotent: with no intervening mutation,
// repeated calls produce identical results.
func (s *Service) Recompute(ctx context.Context, accountID uuid.UUID, year int, month time.Month) error {
	_, err := s.Stats(ctx, accountID, year, month)

	return err
}

// Stats recomputes and persists the reconciliation stats for the
// period, creating the period lazily on first query.
func (s *Service) Stats(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (*Period, error) {
	period, err := s.repo.GetOrCreatePeriod(ctx, accountID, year, month)
	if err != nil {
		return nil, err
	}

	from, to := monthRange(year, month)

	agg, err := s.repo.AggregateUnits(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregating units: %w", err)
	}

	period.ClearedCount = agg.ClearedCount
	period.TotalCount = agg.TotalCount
	period.ClearedBalance = agg.ClearedBalance

	period.ClearedPercent = 0
	if agg.TotalCount > 0 {
		period.ClearedPercent = int(math.Round(float64(agg.ClearedCount) / float64(agg.TotalCount) * 100))
	}

	period.Difference = nil
	if period.StatementBalance != nil {
		diff := *period.StatementBalance - agg.ClearedBalance
		period.Difference = &diff
	}

	if err := s.repo.SaveStats(ctx, period); err != nil {
		return nil, fmt.Errorf("saving stats: %w", err)
	}

	return period, nil
}

// CanFinalize evaluates the close gate: cleared percent at or above the
// threshold, difference inside the tolerance, period not already
// finalized.
func (s *Service) CanFinalize(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (Eligibility, error) {
	period, err := s.Stats(ctx, accountID, year, month)
	if err != nil {
		return Eligibility{}, err
	}

	return s.evaluate(period), nil
}

func (s *Service) evaluate(period *Period) Eligibility {
	if period.Finalized {
		return Eligibility{Reason: "period already finalized"}
	}

	if period.ClearedPercent < s.thresholdPercent {
		unreconciled := period.TotalCount - period.ClearedCount

		noun := "transactions"
		if unreconciled == 1 {
			noun = "transaction"
		}

		return Eligibility{Reason: fmt.Sprintf("%d %s unreconciled (%d%% cleared, %d%% required)",
			unreconciled, noun, period.ClearedPercent, s.thresholdPercent)}
	}

	if period.StatementBalance == nil {
		return Eligibility{Reason: "no statement ending balance entered"}
	}

	diff := *period.Difference
	if diff < 0 {
		diff = -diff
	}

	if diff > s.toleranceCents {
		return Eligibility{Reason: fmt.Sprintf("difference of %s exceeds tolerance of %s",
			FormatCents(*period.Difference), FormatCents(s.toleranceCents))}
	}

	return Eligibility{Allowed: true}
}

// Finalize stores the statement ending balance, re-runs the gate
// predicate, and marks the period finalized. The entered balance is
// kept even when the gate rejects, so the difference stays visible.
func (s *Service) Finalize(ctx context.Context, accountID uuid.UUID, year int, month time.Month, statementBalance int64) (*Period, error) {
	period, err := s.repo.GetOrCreatePeriod(ctx, accountID, year, month)
	if err != nil {
		return nil, err
	}

	if period.Finalized {
		return nil, fmt.Errorf("%w: period already finalized", ErrNotEligible)
	}

	if err := s.repo.SetStatementBalance(ctx, period.ID, statementBalance); err != nil {
		return nil, fmt.Errorf("saving statement balance: %w", err)
	}

	period, err = s.Stats(ctx, accountID, year, month)
	if err != nil {
		return nil, err
	}

	if elig := s.evaluate(period); !elig.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, elig.Reason)
	}

	if err := s.repo.MarkFinalized(ctx, period.ID); err != nil {
		return nil, err
	}

	period.Finalized = true

	return period, nil
}

// Reopen is the administrative escape hatch that allows further
// transaction mutations in a finalized period.
func (s *Service) Reopen(ctx context.Context, accountID uuid.UUID, year int, month time.Month) error {
	period, err := s.repo.GetOrCreatePeriod(ctx, accountID, year, month)
	if err != nil {
		return err
	}

	if !period.Finalized {
		return ErrNotFinalized
	}

	return s.repo.MarkReopened(ctx, period.ID)
}

// EnsureOpen rejects mutations dated inside a finalized period.
func (s *Service) EnsureOpen(ctx context.Context, accountID uuid.UUID, date time.Time) error {
	finalized, err := s.repo.IsFinalized(ctx, accountID, date.Year(), date.Month())
	if err != nil {
		return err
	}

	if finalized {
		return ErrPeriodFinalized
	}

	return nil
}
