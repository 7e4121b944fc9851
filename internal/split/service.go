package split

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/transaction"
)

var (
	// ErrInvalidSplit covers an empty allocation list, a zero
	// allocation amount, or a sum that differs from the parent amount.
	ErrInvalidSplit = errors.New("invalid split")
	// ErrSplitsStillMatched blocks unsplit while any child allocation
	// holds an active match.
	ErrSplitsStillMatched = errors.New("allocations still matched; unmatch them first")
	// ErrNotSplit means unsplit was called on a transaction without
	// committed splits.
	ErrNotSplit = errors.New("transaction is not split")
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=split
type Repository interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.BankTransaction, error)
	ListAllocations(ctx context.Context, transactionID uuid.UUID) ([]*transaction.SplitAllocation, error)

	// CreateAllocations inserts the allocations and flips the parent to
	// split in one database transaction, guarded by the parent version.
	CreateAllocations(ctx context.Context, transactionID uuid.UUID, allocs []*transaction.SplitAllocation, expectedVersion int64) error

	// RemoveAllocations deletes all allocations and returns the parent
	// to unmatched. Fails with ErrSplitsStillMatched if any allocation
	// has an active match at commit time.
	RemoveAllocations(ctx context.Context, transactionID uuid.UUID, expectedVersion int64) error
}

// PeriodGate blocks mutations dated inside a finalized period.
type PeriodGate interface {
	EnsureOpen(ctx context.Context, accountID uuid.UUID, date time.Time) error
}

// StatsRecomputer refreshes reconciliation stats after a mutation.
type StatsRecomputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID, year int, month time.Month) error
}

type Service struct {
	repo       Repository
	gate       PeriodGate
	recomputer StatsRecomputer
}

func NewService(repo Repository, gate PeriodGate, recomputer StatsRecomputer) *Service {
	return &Service{repo: repo, gate: gate, recomputer: recomputer}
}

// Allocation is one requested slice of a split.
type Allocation struct {
	Amount      int64
	Description string
}

// validateAllocations enforces the split sum invariant: allocations are
// non-empty, no amount is zero, and amounts sum exactly to the parent
// amount in minor units.
func validateAllocations(parentAmount int64, allocs []Allocation) error {
	if len(allocs) == 0 {
		return fmt.Errorf("%w: no allocations", ErrInvalidSplit)
	}

	var sum int64

	for i, a := range allocs {
		if a.Amount == 0 {
			return fmt.Errorf("%w: allocation %d has zero amount", ErrInvalidSplit, i+1)
		}

		sum += a.Amount
	}

	if sum != parentAmount {
		return fmt.Errorf("%w: allocations sum to %d, transaction amount is %d", ErrInvalidSplit, sum, parentAmount)
	}

	return nil
}

// Split divides the transaction into independently matchable
// allocations. The parent must be unmatched and not already split.
func (s *Service) Split(ctx context.Context, transactionID uuid.UUID, allocs []Allocation) ([]*transaction.SplitAllocation, error) {
	parent, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	switch parent.Status {
	case transaction.StatusMatched:
		return nil, match.ErrAlreadyMatched
	case transaction.StatusSplit:
		return nil, match.ErrTransactionSplit
	}

	if err := validateAllocations(parent.Amount, allocs); err != nil {
		return nil, err
	}

	if err := s.gate.EnsureOpen(ctx, parent.AccountID, parent.Date); err != nil {
		return nil, err
	}

	rows := make([]*transaction.SplitAllocation, len(allocs))
	for i, a := range allocs {
		rows[i] = &transaction.SplitAllocation{
			TransactionID: transactionID,
			Amount:        a.Amount,
			Description:   a.Description,
			Status:        transaction.StatusUnmatched,
		}
	}

	if err := s.repo.CreateAllocations(ctx, transactionID, rows, parent.Version); err != nil {
		return nil, err
	}

	if err := s.recomputer.Recompute(ctx, parent.AccountID, parent.Date.Year(), parent.Date.Month()); err != nil {
		return nil, fmt.Errorf("recompute stats: %w", err)
	}

	return rows, nil
}

// Unsplit removes all allocations and restores the parent to unmatched.
// Only permitted while no allocation is matched.
func (s *Service) Unsplit(ctx context.Context, transactionID uuid.UUID) error {
	parent, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	if parent.Status != transaction.StatusSplit {
		return ErrNotSplit
	}

	allocs, err := s.repo.ListAllocations(ctx, transactionID)
	if err != nil {
		return err
	}

	for _, a := range allocs {
		if a.Status == transaction.StatusMatched {
			return ErrSplitsStillMatched
		}
	}

	if err := s.gate.EnsureOpen(ctx, parent.AccountID, parent.Date); err != nil {
		return err
	}

	if err := s.repo.RemoveAllocations(ctx, transactionID, parent.Version); err != nil {
		return err
	}

	if err := s.recomputer.Recompute(ctx, parent.AccountID, parent.Date.Year(), parent.Date.Month()); err != nil {
		return fmt.Errorf("recompute stats: %w", err)
	}

	return nil
}
