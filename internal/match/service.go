package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/ledger"
	"github.com/clearbooks/reconcile/internal/suggest"
	"github.com/clearbooks/reconcile/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=match
type Repository interface {
	GetUnit(ctx context.Context, ref transaction.UnitRef) (*Unit, error)

	// CreateMatch atomically inserts the match and flips the unit to
	// matched, guarded by the unit's version. Returns ErrAlreadyMatched
	// when the unit is already matched, ErrConflict when the version
	// check loses a race.
	CreateMatch(ctx context.Context, m *Match, expectedVersion int64) error

	// VoidMatch voids the active match and returns the unit to
	// unmatched. Returns ErrNotMatched when no active match exists.
	VoidMatch(ctx context.Context, ref transaction.UnitRef, expectedVersion int64) error

	// ListUnmatchedUnits returns every unmatched unit of the account,
	// oldest transaction date first (id ascending on equal dates).
	ListUnmatchedUnits(ctx context.Context, accountID uuid.UUID) ([]*Unit, error)

	// WithAccountLock runs fn while holding an exclusive per-account
	// lock, so concurrent auto-match runs on one account serialize
	// without blocking other accounts.
	WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error
}

// DocumentResolver resolves a document ref to a concrete ledger
// document.
type DocumentResolver interface {
	Resolve(ctx context.Context, ref ledger.DocumentRef) (ledger.Candidate, error)
}

// Suggester provides ranked candidates for a unit, best first.
type Suggester interface {
	Ranked(ctx context.Context, target suggest.Target) ([]suggest.Scored, error)
}

// PeriodGate blocks mutations dated inside a finalized period.
type PeriodGate interface {
	EnsureOpen(ctx context.Context, accountID uuid.UUID, date time.Time) error
}

// StatsRecomputer refreshes reconciliation stats for the period a
// mutation touched. Called synchronously so callers observe updated
// stats immediately.
type StatsRecomputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID, year int, month time.Month) error
}

type Service struct {
	repo       Repository
	docs       DocumentResolver
	suggester  Suggester
	gate       PeriodGate
	recomputer StatsRecomputer

	autoAcceptScore float64
}

func NewService(repo Repository, docs DocumentResolver, suggester Suggester, gate PeriodGate, recomputer StatsRecomputer, autoAcceptScore float64) *Service {
	return &Service{
		repo:            repo,
		docs:            docs,
		suggester:       suggester,
		gate:            gate,
		recomputer:      recomputer,
		autoAcceptScore: autoAcceptScore,
	}
}

// Unit resolves a matchable unit for read paths such as suggestions.
func (s *Service) Unit(ctx context.Context, ref transaction.UnitRef) (*Unit, error) {
	return s.repo.GetUnit(ctx, ref)
}

// Match links the unit to the document. The unit must be unmatched; an
// existing match is never silently replaced.
func (s *Service) Match(ctx context.Context, unitRef transaction.UnitRef, docRef ledger.DocumentRef) (*Match, error) {
	unit, err := s.repo.GetUnit(ctx, unitRef)
	if err != nil {
		return nil, err
	}

	if _, err := s.docs.Resolve(ctx, docRef); err != nil {
		return nil, err
	}

	switch unit.Status {
	case transaction.StatusMatched:
		return nil, ErrAlreadyMatched
	case transaction.StatusSplit:
		return nil, ErrTransactionSplit
	}

	if err := s.gate.EnsureOpen(ctx, unit.AccountID, unit.Date); err != nil {
		return nil, err
	}

	m := &Match{Unit: unitRef, Doc: docRef}
	if err := s.repo.CreateMatch(ctx, m, unit.Version); err != nil {
		return nil, err
	}

	if err := s.recomputer.Recompute(ctx, unit.AccountID, unit.Date.Year(), unit.Date.Month()); err != nil {
		return nil, fmt.Errorf("recompute stats: %w", err)
	}

	return m, nil
}

// Unmatch voids the unit's active match. Calling it on an unmatched
// unit fails with ErrNotMatched.
func (s *Service) Unmatch(ctx context.Context, unitRef transaction.UnitRef) error {
	unit, err := s.repo.GetUnit(ctx, unitRef)
	if err != nil {
		return err
	}

	if unit.Status != transaction.StatusMatched {
		return ErrNotMatched
	}

	if err := s.gate.EnsureOpen(ctx, unit.AccountID, unit.Date); err != nil {
		return err
	}

	if err := s.repo.VoidMatch(ctx, unitRef, unit.Version); err != nil {
		return err
	}

	if err := s.recomputer.Recompute(ctx, unit.AccountID, unit.Date.Year(), unit.Date.Month()); err != nil {
		return fmt.Errorf("recompute stats: %w", err)
	}

	return nil
}

type period struct {
	year  int
	month time.Month
}

// AutoMatch walks the account's unmatched units oldest-first and
// commits the best suggestion when its confidence reaches the
// auto-accept score. A document consumed by one match in the batch is
// not offered to later units, so earlier transactions win contested
// documents. The whole run holds the account lock.
func (s *Service) AutoMatch(ctx context.Context, accountID uuid.UUID) (*AutoMatchResult, error) {
	result := &AutoMatchResult{}

	err := s.repo.WithAccountLock(ctx, accountID, func(ctx context.Context) error {
		units, err := s.repo.ListUnmatchedUnits(ctx, accountID)
		if err != nil {
			return err
		}

		consumed := make(map[ledger.DocumentRef]bool)
		touched := make(map[period]bool)

		for _, unit := range units {
			// Units in finalized periods are skipped, not an error:
			// auto-match covers the whole account, not one period.
			if err := s.gate.EnsureOpen(ctx, accountID, unit.Date); err != nil {
				result.Skipped++
				continue
			}

			ranked, err := s.suggester.Ranked(ctx, suggest.Target{
				Amount:     unit.Amount,
				Date:       unit.Date,
				Descriptor: unit.Descriptor,
			})
			if err != nil {
				return err
			}

			best, ok := firstUnconsumed(ranked, consumed)
			if !ok || best.Score < s.autoAcceptScore {
				result.Skipped++
				continue
			}

			m := &Match{Unit: unit.Ref, Doc: best.Ref, Auto: true, Score: best.Score}
			if err := s.repo.CreateMatch(ctx, m, unit.Version); err != nil {
				if errors.Is(err, ErrAlreadyMatched) || errors.Is(err, ErrConflict) {
					result.Skipped++
					continue
				}

				return err
			}

			consumed[best.Ref] = true
			touched[period{unit.Date.Year(), unit.Date.Month()}] = true
			result.MatchedCount++
		}

		for p := range touched {
			if err := s.recomputer.Recompute(ctx, accountID, p.year, p.month); err != nil {
				return fmt.Errorf("recompute stats: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func firstUnconsumed(ranked []suggest.Scored, consumed map[ledger.DocumentRef]bool) (suggest.Scored, bool) {
	for _, sc := range ranked {
		if !consumed[sc.Ref] {
			return sc, true
		}
	}

	return suggest.Scored{}, false
}
