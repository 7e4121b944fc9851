package split

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/transaction"
)

// Mock Repository
type mockRepo struct {
	getTransactionFunc    func(ctx context.Context, id uuid.UUID) (*transaction.BankTransaction, error)
	listAllocationsFunc   func(ctx context.Context, transactionID uuid.UUID) ([]*transaction.SplitAllocation, error)
	createAllocationsFunc func(ctx context.Context, transactionID uuid.UUID, allocs []*transaction.SplitAllocation, expectedVersion int64) error
	removeAllocationsFunc func(ctx context.Context, transactionID uuid.UUID, expectedVersion int64) error
}

func (m *mockRepo) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.BankTransaction, error) {
	if m.getTransactionFunc != nil {
		return m.getTransactionFunc(ctx, id)
	}

	return nil, transaction.ErrNotFound
}

func (m *mockRepo) ListAllocations(ctx context.Context, transactionID uuid.UUID) ([]*transaction.SplitAllocation, error) {
	if m.listAllocationsFunc != nil {
		return m.listAllocationsFunc(ctx, transactionID)
	}

	return nil, nil
}

func (m *mockRepo) CreateAllocations(ctx context.Context, transactionID uuid.UUID, allocs []*transaction.SplitAllocation, expectedVersion int64) error {
	if m.createAllocationsFunc != nil {
		return m.createAllocationsFunc(ctx, transactionID, allocs, expectedVersion)
	}

	return nil
}

func (m *mockRepo) RemoveAllocations(ctx context.Context, transactionID uuid.UUID, expectedVersion int64) error {
	if m.removeAllocationsFunc != nil {
		return m.removeAllocationsFunc(ctx, transactionID, expectedVersion)
	}

	return nil
}

type mockGate struct {
	err error
}

func (m *mockGate) EnsureOpen(ctx context.Context, accountID uuid.UUID, date time.Time) error {
	return m.err
}

type mockRecomputer struct {
	calls int
}

func (m *mockRecomputer) Recompute(ctx context.Context, accountID uuid.UUID, year int, month time.Month) error {
	m.calls++
	return nil
}

func parentTransaction(amount int64, status transaction.Status) *transaction.BankTransaction {
	return &transaction.BankTransaction{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Date:      time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Amount:    amount,
		Status:    status,
		Version:   2,
	}
}

func TestService_Split(t *testing.T) {
	type testCase struct {
		name         string
		parentAmount int64
		parentStatus transaction.Status
		allocs       []Allocation
		gateErr      error
		wantErr      error
	}

	tests := []testCase{
		{
			name:         "Success",
			parentAmount: -10000,
			parentStatus: transaction.StatusUnmatched,
			allocs: []Allocation{
				{Amount: -6000, Description: "equipment"},
				{Amount: -4000, Description: "supplies"},
			},
		},
		{
			name:         "SumMismatch",
			parentAmount: -10000,
			parentStatus: transaction.StatusUnmatched,
			allocs: []Allocation{
				{Amount: -6000},
				{Amount: -3999},
			},
			wantErr: ErrInvalidSplit,
		},
		{
			name:         "ZeroAllocation",
			parentAmount: -10000,
			parentStatus: transaction.StatusUnmatched,
			allocs: []Allocation{
				{Amount: -10000},
				{Amount: 0},
			},
			wantErr: ErrInvalidSplit,
		},
		{
			name:         "EmptyAllocations",
			parentAmount: -10000,
			parentStatus: transaction.StatusUnmatched,
			allocs:       nil,
			wantErr:      ErrInvalidSplit,
		},
		{
			name:         "OffsettingAllocationsAllowed",
			parentAmount: -10000,
			parentStatus: transaction.StatusUnmatched,
			allocs: []Allocation{
				{Amount: -12000, Description: "gross charge"},
				{Amount: 2000, Description: "partial refund"},
			},
		},
		{
			name:         "ParentMatched",
			parentAmount: -10000,
			parentStatus: transaction.StatusMatched,
			allocs:       []Allocation{{Amount: -10000}},
			wantErr:      match.ErrAlreadyMatched,
		},
		{
			name:         "ParentAlreadySplit",
			parentAmount: -10000,
			parentStatus: transaction.StatusSplit,
			allocs:       []Allocation{{Amount: -10000}},
			wantErr:      match.ErrTransactionSplit,
		},
		{
			name:         "FinalizedPeriod",
			parentAmount: -10000,
			parentStatus: transaction.StatusUnmatched,
			allocs:       []Allocation{{Amount: -10000}},
			gateErr:      assert.AnError,
			wantErr:      assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := parentTransaction(tt.parentAmount, tt.parentStatus)

			var createdVersion int64

			repo := &mockRepo{
				getTransactionFunc: func(_ context.Context, id uuid.UUID) (*transaction.BankTransaction, error) {
					return parent, nil
				},
				createAllocationsFunc: func(_ context.Context, _ uuid.UUID, allocs []*transaction.SplitAllocation, expectedVersion int64) error {
					createdVersion = expectedVersion
					return nil
				},
			}
			recomputer := &mockRecomputer{}

			svc := NewService(repo, &mockGate{err: tt.gateErr}, recomputer)
			got, err := svc.Split(context.Background(), parent.ID, tt.allocs)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Zero(t, recomputer.calls, "rejected split must not touch stats")

				return
			}

			require.NoError(t, err)
			require.Len(t, got, len(tt.allocs))
			assert.Equal(t, parent.Version, createdVersion)
			assert.Equal(t, 1, recomputer.calls)

			var sum int64
			for i, a := range got {
				assert.Equal(t, tt.allocs[i].Amount, a.Amount)
				assert.Equal(t, transaction.StatusUnmatched, a.Status)
				sum += a.Amount
			}

			assert.Equal(t, parent.Amount, sum)
		})
	}
}

func TestService_Unsplit(t *testing.T) {
	type testCase struct {
		name         string
		parentStatus transaction.Status
		allocs       []*transaction.SplitAllocation
		wantErr      error
	}

	tests := []testCase{
		{
			name:         "Success",
			parentStatus: transaction.StatusSplit,
			allocs: []*transaction.SplitAllocation{
				{Amount: -6000, Status: transaction.StatusUnmatched},
				{Amount: -4000, Status: transaction.StatusUnmatched},
			},
		},
		{
			name:         "NotSplit",
			parentStatus: transaction.StatusUnmatched,
			wantErr:      ErrNotSplit,
		},
		{
			name:         "ChildStillMatched",
			parentStatus: transaction.StatusSplit,
			allocs: []*transaction.SplitAllocation{
				{Amount: -6000, Status: transaction.StatusMatched},
				{Amount: -4000, Status: transaction.StatusUnmatched},
			},
			wantErr: ErrSplitsStillMatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := parentTransaction(-10000, tt.parentStatus)

			removed := false

			repo := &mockRepo{
				getTransactionFunc: func(_ context.Context, id uuid.UUID) (*transaction.BankTransaction, error) {
					return parent, nil
				},
				listAllocationsFunc: func(_ context.Context, _ uuid.UUID) ([]*transaction.SplitAllocation, error) {
					return tt.allocs, nil
				},
				removeAllocationsFunc: func(_ context.Context, _ uuid.UUID, expectedVersion int64) error {
					removed = true
					return nil
				},
			}
			recomputer := &mockRecomputer{}

			svc := NewService(repo, &mockGate{}, recomputer)
			err := svc.Unsplit(context.Background(), parent.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, removed)

				return
			}

			require.NoError(t, err)
			assert.True(t, removed)
			assert.Equal(t, 1, recomputer.calls)
		})
	}

	t.Run("ChildMatchedAfterRead", func(t *testing.T) {
		// The service sees every child unmatched, but a concurrent match
		// lands before the store's locked re-check. The store reports it
		// and the unsplit must fail rather than orphan the new match.
		parent := parentTransaction(-10000, transaction.StatusSplit)

		repo := &mockRepo{
			getTransactionFunc: func(_ context.Context, id uuid.UUID) (*transaction.BankTransaction, error) {
				return parent, nil
			},
			listAllocationsFunc: func(_ context.Context, _ uuid.UUID) ([]*transaction.SplitAllocation, error) {
				return []*transaction.SplitAllocation{
					{Amount: -6000, Status: transaction.StatusUnmatched},
					{Amount: -4000, Status: transaction.StatusUnmatched},
				}, nil
			},
			removeAllocationsFunc: func(_ context.Context, _ uuid.UUID, _ int64) error {
				return ErrSplitsStillMatched
			},
		}
		recomputer := &mockRecomputer{}

		svc := NewService(repo, &mockGate{}, recomputer)
		err := svc.Unsplit(context.Background(), parent.ID)

		assert.ErrorIs(t, err, ErrSplitsStillMatched)
		assert.Zero(t, recomputer.calls)
	})
}
