package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock Repository
type mockRepo struct {
	getStatsFunc    func(ctx context.Context, accountID uuid.UUID) (*Stats, error)
	beginImportFunc func(ctx context.Context, accountID uuid.UUID) (ImportTx, error)
}

func (m *mockRepo) GetTransaction(ctx context.Context, id uuid.UUID) (*BankTransaction, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) ListTransactions(ctx context.Context, filter ListFilter) ([]*BankTransaction, error) {
	return nil, nil
}

func (m *mockRepo) ListAllocations(ctx context.Context, transactionID uuid.UUID) ([]*SplitAllocation, error) {
	return nil, nil
}

func (m *mockRepo) GetAllocation(ctx context.Context, id uuid.UUID) (*SplitAllocation, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) GetStats(ctx context.Context, accountID uuid.UUID) (*Stats, error) {
	if m.getStatsFunc != nil {
		return m.getStatsFunc(ctx, accountID)
	}

	return &Stats{}, nil
}

func (m *mockRepo) BeginImport(ctx context.Context, accountID uuid.UUID) (ImportTx, error) {
	if m.beginImportFunc != nil {
		return m.beginImportFunc(ctx, accountID)
	}

	return &mockImportTx{}, nil
}

// mockImportTx records what the batch did to the database transaction.
type mockImportTx struct {
	existing map[string]bool

	inserted   []*BankTransaction
	refreshed  []ImportRow
	delta      int64
	syncedAt   time.Time
	committed  bool
	rolledBack bool
}

func (m *mockImportTx) ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error) {
	found := make(map[string]bool)

	for _, id := range externalIDs {
		if m.existing[id] {
			found[id] = true
		}
	}

	return found, nil
}

func (m *mockImportTx) InsertTransactions(ctx context.Context, txs []*BankTransaction) error {
	m.inserted = append(m.inserted, txs...)
	return nil
}

func (m *mockImportTx) RefreshMetadata(ctx context.Context, rows []ImportRow) error {
	m.refreshed = append(m.refreshed, rows...)
	return nil
}

func (m *mockImportTx) UpdateAccountSync(ctx context.Context, balanceDelta int64, syncedAt time.Time) error {
	m.delta = balanceDelta
	m.syncedAt = syncedAt

	return nil
}

func (m *mockImportTx) Commit() error {
	m.committed = true
	return nil
}

func (m *mockImportTx) Rollback() error {
	if !m.committed {
		m.rolledBack = true
	}

	return nil
}

func importRow(externalID string, amount int64) ImportRow {
	return ImportRow{
		ExternalID:  externalID,
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "coffee beans",
		Amount:      new(amount),
	}
}

func newImportService(itx *mockImportTx) *Service {
	svc := NewService(&mockRepo{
		beginImportFunc: func(_ context.Context, _ uuid.UUID) (ImportTx, error) {
			return itx, nil
		},
	})
	svc.WithNow(func() time.Time {
		return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	})

	return svc
}

func TestService_ImportBatch(t *testing.T) {
	accountID := uuid.New()

	t.Run("FreshRowsInserted", func(t *testing.T) {
		itx := &mockImportTx{}
		svc := newImportService(itx)

		result, err := svc.ImportBatch(context.Background(), accountID, []ImportRow{
			importRow("tx-1", -450),
			importRow("tx-2", -1200),
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)
		assert.Empty(t, result.Skipped)
		assert.True(t, itx.committed)

		require.Len(t, itx.inserted, 2)
		assert.Equal(t, StatusUnmatched, itx.inserted[0].Status)
		assert.Equal(t, int64(-1650), itx.delta)
		assert.Equal(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), itx.syncedAt)
	})

	t.Run("ResyncIsIdempotent", func(t *testing.T) {
		itx := &mockImportTx{existing: map[string]bool{"tx-1": true}}
		svc := newImportService(itx)

		result, err := svc.ImportBatch(context.Background(), accountID, []ImportRow{
			importRow("tx-1", -450),
			importRow("tx-3", -300),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "tx-1", result.Skipped[0].ExternalID)
		assert.Equal(t, "already imported", result.Skipped[0].Reason)

		// The existing row only gets a metadata refresh and must not
		// count toward the balance delta.
		require.Len(t, itx.refreshed, 1)
		assert.Equal(t, "tx-1", itx.refreshed[0].ExternalID)
		assert.Equal(t, int64(-300), itx.delta)
	})

	t.Run("MalformedRowsSkippedWithReason", func(t *testing.T) {
		itx := &mockImportTx{}
		svc := newImportService(itx)

		noAmount := ImportRow{ExternalID: "tx-bad-amount", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}
		noDate := ImportRow{ExternalID: "tx-bad-date", Amount: new(int64(100))}
		noID := importRow("", -100)

		result, err := svc.ImportBatch(context.Background(), accountID, []ImportRow{
			noAmount, noDate, noID, importRow("tx-ok", -500),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		require.Len(t, result.Skipped, 3)
		assert.Equal(t, "missing amount", result.Skipped[0].Reason)
		assert.Equal(t, "missing date", result.Skipped[1].Reason)
		assert.Equal(t, "missing external id", result.Skipped[2].Reason)
	})

	t.Run("DuplicateInBatch", func(t *testing.T) {
		itx := &mockImportTx{}
		svc := newImportService(itx)

		result, err := svc.ImportBatch(context.Background(), accountID, []ImportRow{
			importRow("tx-1", -450),
			importRow("tx-1", -450),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "duplicate external id in batch", result.Skipped[0].Reason)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		svc := NewService(&mockRepo{
			beginImportFunc: func(_ context.Context, _ uuid.UUID) (ImportTx, error) {
				t.Fatal("empty batch must not open a transaction")
				return nil, nil
			},
		})

		result, err := svc.ImportBatch(context.Background(), accountID, nil)

		require.NoError(t, err)
		assert.Zero(t, result.Imported)
	})
}

func TestService_Stats(t *testing.T) {
	type testCase struct {
		name     string
		stats    Stats
		wantRate int
	}

	tests := []testCase{
		{
			name:     "RoundsToNearest",
			stats:    Stats{Total: 3, Matched: 2},
			wantRate: 67,
		},
		{
			name:     "AllMatched",
			stats:    Stats{Total: 5, Matched: 5},
			wantRate: 100,
		},
		{
			name:     "EmptyAccount",
			stats:    Stats{},
			wantRate: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{
				getStatsFunc: func(_ context.Context, _ uuid.UUID) (*Stats, error) {
					s := tt.stats
					return &s, nil
				},
			}

			got, err := NewService(repo).Stats(context.Background(), uuid.New())

			require.NoError(t, err)
			assert.Equal(t, tt.wantRate, got.MatchRatePercent)
		})
	}
}
