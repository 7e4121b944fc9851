package recon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepo keeps one in-memory period so the lazy-create and persist
// paths behave like the real store.
type mockRepo struct {
	period    *Period
	aggregate Aggregate

	finalized      map[string]bool
	saveStatsCalls int
}

func keyOf(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func (m *mockRepo) GetOrCreatePeriod(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (*Period, error) {
	if m.period == nil {
		m.period = &Period{
			ID:        uuid.New(),
			AccountID: accountID,
			Year:      year,
			Month:     month,
		}
	}

	p := *m.period

	return &p, nil
}

func (m *mockRepo) IsFinalized(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (bool, error) {
	return m.finalized[keyOf(year, month)], nil
}

func (m *mockRepo) AggregateUnits(ctx context.Context, accountID uuid.UUID, from, to time.Time) (Aggregate, error) {
	return m.aggregate, nil
}

func (m *mockRepo) SaveStats(ctx context.Context, period *Period) error {
	m.saveStatsCalls++
	saved := *period
	m.period = &saved

	return nil
}

func (m *mockRepo) SetStatementBalance(ctx context.Context, periodID uuid.UUID, balance int64) error {
	m.period.StatementBalance = &balance
	return nil
}

func (m *mockRepo) MarkFinalized(ctx context.Context, periodID uuid.UUID) error {
	m.period.Finalized = true
	m.finalized[keyOf(m.period.Year, m.period.Month)] = true

	return nil
}

func (m *mockRepo) MarkReopened(ctx context.Context, periodID uuid.UUID) error {
	if !m.period.Finalized {
		return ErrNotFinalized
	}

	m.period.Finalized = false
	delete(m.finalized, keyOf(m.period.Year, m.period.Month))

	return nil
}

func newRepo(agg Aggregate) *mockRepo {
	return &mockRepo{aggregate: agg, finalized: make(map[string]bool)}
}

func TestService_Stats(t *testing.T) {
	accountID := uuid.New()

	t.Run("ComputesPercentAndBalance", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 2, TotalCount: 3, ClearedBalance: -15000})
		svc := NewService(repo, 100, 0)

		period, err := svc.Stats(context.Background(), accountID, 2024, time.March)

		require.NoError(t, err)
		assert.Equal(t, 2, period.ClearedCount)
		assert.Equal(t, 3, period.TotalCount)
		assert.Equal(t, int64(-15000), period.ClearedBalance)
		assert.Equal(t, 67, period.ClearedPercent)
	})

	t.Run("DifferenceNilWithoutStatementBalance", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 1, TotalCount: 1, ClearedBalance: -5000})
		svc := NewService(repo, 100, 0)

		period, err := svc.Stats(context.Background(), accountID, 2024, time.March)

		require.NoError(t, err)
		assert.Nil(t, period.Difference, "no statement balance means no difference, not zero")
	})

	t.Run("DifferenceFromStatementBalance", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 1, TotalCount: 1, ClearedBalance: -5000})
		svc := NewService(repo, 100, 0)

		// Enter a statement balance, then recompute.
		_, err := svc.Stats(context.Background(), accountID, 2024, time.March)
		require.NoError(t, err)
		require.NoError(t, repo.SetStatementBalance(context.Background(), repo.period.ID, -12500))

		period, err := svc.Stats(context.Background(), accountID, 2024, time.March)

		require.NoError(t, err)
		require.NotNil(t, period.Difference)
		assert.Equal(t, int64(-7500), *period.Difference)
	})

	t.Run("Idempotent", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 4, TotalCount: 10, ClearedBalance: -80000})
		svc := NewService(repo, 100, 0)

		first, err := svc.Stats(context.Background(), accountID, 2024, time.March)
		require.NoError(t, err)

		second, err := svc.Stats(context.Background(), accountID, 2024, time.March)
		require.NoError(t, err)

		assert.Equal(t, first.ClearedCount, second.ClearedCount)
		assert.Equal(t, first.ClearedPercent, second.ClearedPercent)
		assert.Equal(t, first.ClearedBalance, second.ClearedBalance)
		assert.Equal(t, 2, repo.saveStatsCalls)
	})

	t.Run("EmptyPeriod", func(t *testing.T) {
		repo := newRepo(Aggregate{})
		svc := NewService(repo, 100, 0)

		period, err := svc.Stats(context.Background(), accountID, 2024, time.March)

		require.NoError(t, err)
		assert.Zero(t, period.ClearedPercent)
		assert.Nil(t, period.Difference)
	})
}

func TestService_Finalize(t *testing.T) {
	accountID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 3, TotalCount: 3, ClearedBalance: -30000})
		svc := NewService(repo, 100, 0)

		period, err := svc.Finalize(context.Background(), accountID, 2024, time.March, -30000)

		require.NoError(t, err)
		assert.True(t, period.Finalized)
		require.NotNil(t, period.Difference)
		assert.Zero(t, *period.Difference)
	})

	t.Run("UnreconciledTransactionsBlock", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 2, TotalCount: 3, ClearedBalance: -20000})
		svc := NewService(repo, 100, 0)

		_, err := svc.Finalize(context.Background(), accountID, 2024, time.March, -20000)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotEligible)
		assert.ErrorContains(t, err, "1 transaction unreconciled (67% cleared, 100% required)")
	})

	t.Run("DifferenceOutsideToleranceBlocks", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 2, TotalCount: 2, ClearedBalance: -20000})
		svc := NewService(repo, 100, 0)

		_, err := svc.Finalize(context.Background(), accountID, 2024, time.March, -12500)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotEligible)
		assert.ErrorContains(t, err, "difference of $75.00 exceeds tolerance of $0.00")

		// The entered balance is kept so the difference stays visible.
		require.NotNil(t, repo.period.StatementBalance)
		assert.Equal(t, int64(-12500), *repo.period.StatementBalance)
		assert.False(t, repo.period.Finalized)
	})

	t.Run("DifferenceInsideToleranceAllowed", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 2, TotalCount: 2, ClearedBalance: -20000})
		svc := NewService(repo, 100, 50)

		period, err := svc.Finalize(context.Background(), accountID, 2024, time.March, -20030)

		require.NoError(t, err)
		assert.True(t, period.Finalized)
	})

	t.Run("PartialThreshold", func(t *testing.T) {
		// A deployment may accept a partially reconciled close.
		repo := newRepo(Aggregate{ClearedCount: 9, TotalCount: 10, ClearedBalance: -90000})
		svc := NewService(repo, 90, 0)

		period, err := svc.Finalize(context.Background(), accountID, 2024, time.March, -90000)

		require.NoError(t, err)
		assert.True(t, period.Finalized)
	})

	t.Run("AlreadyFinalized", func(t *testing.T) {
		repo := newRepo(Aggregate{ClearedCount: 1, TotalCount: 1, ClearedBalance: -1000})
		svc := NewService(repo, 100, 0)

		_, err := svc.Finalize(context.Background(), accountID, 2024, time.March, -1000)
		require.NoError(t, err)

		_, err = svc.Finalize(context.Background(), accountID, 2024, time.March, -1000)

		assert.ErrorIs(t, err, ErrNotEligible)
		assert.ErrorContains(t, err, "already finalized")
	})
}

func TestService_CanFinalize(t *testing.T) {
	accountID := uuid.New()

	repo := newRepo(Aggregate{ClearedCount: 1, TotalCount: 2, ClearedBalance: -5000})
	svc := NewService(repo, 100, 0)

	elig, err := svc.CanFinalize(context.Background(), accountID, 2024, time.March)

	require.NoError(t, err)
	assert.False(t, elig.Allowed)
	assert.Equal(t, "1 transaction unreconciled (50% cleared, 100% required)", elig.Reason)
}

func TestService_ReopenAndGate(t *testing.T) {
	accountID := uuid.New()
	inPeriod := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	outOfPeriod := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

	repo := newRepo(Aggregate{ClearedCount: 1, TotalCount: 1, ClearedBalance: -1000})
	svc := NewService(repo, 100, 0)

	// Open period: reopen is rejected, mutations pass the gate.
	assert.ErrorIs(t, svc.Reopen(context.Background(), accountID, 2024, time.March), ErrNotFinalized)
	assert.NoError(t, svc.EnsureOpen(context.Background(), accountID, inPeriod))

	_, err := svc.Finalize(context.Background(), accountID, 2024, time.March, -1000)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.EnsureOpen(context.Background(), accountID, inPeriod), ErrPeriodFinalized)
	assert.NoError(t, svc.EnsureOpen(context.Background(), accountID, outOfPeriod),
		"only the finalized month is gated")

	require.NoError(t, svc.Reopen(context.Background(), accountID, 2024, time.March))
	assert.NoError(t, svc.EnsureOpen(context.Background(), accountID, inPeriod))
}
