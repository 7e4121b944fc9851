package suggest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbooks/reconcile/internal/ledger"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func candidate(amount int64, date time.Time, descriptor string) ledger.Candidate {
	return ledger.Candidate{
		Ref:        ledger.DocRef(uuid.New()),
		Amount:     amount,
		Date:       date,
		Descriptor: descriptor,
	}
}

func TestEngine_Rank_ExactMatchFirst(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	target := Target{Amount: -12050, Date: day(15), Descriptor: "ACME supplies invoice 4417"}

	exact := candidate(12050, day(15), "ACME supplies invoice 4417")
	offByDate := candidate(12050, day(18), "ACME supplies invoice 4417")
	offByAmount := candidate(12090, day(15), "ACME supplies invoice 4417")
	unrelated := candidate(500000, day(1), "payroll batch")

	got := engine.Rank(target, []ledger.Candidate{unrelated, offByAmount, offByDate, exact})

	require.NotEmpty(t, got)
	assert.Equal(t, exact.Ref, got[0].Ref)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)

	for _, sc := range got {
		assert.NotEqual(t, unrelated.Ref, sc.Ref, "unrelated candidate should fall below the floor")
	}
}

func TestEngine_Rank_Deterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	target := Target{Amount: -7500, Date: day(10), Descriptor: "consulting retainer march"}

	candidates := []ledger.Candidate{
		candidate(7500, day(9), "consulting retainer"),
		candidate(7500, day(11), "march retainer consulting"),
		candidate(7450, day(10), "consulting"),
		candidate(7500, day(10), "consulting retainer march"),
	}

	first := engine.Rank(target, candidates)

	for range 10 {
		again := engine.Rank(target, candidates)
		require.Equal(t, len(first), len(again))

		for i := range first {
			assert.Equal(t, first[i].Ref, again[i].Ref)
			assert.Equal(t, first[i].Score, again[i].Score)
		}
	}
}

func TestEngine_Rank_TieBreakByDateThenID(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	target := Target{Amount: -1000, Date: day(10), Descriptor: "rent"}

	near := candidate(1000, day(11), "rent")
	far := candidate(1000, day(13), "rent")

	got := engine.Rank(target, []ledger.Candidate{far, near})

	require.Len(t, got, 2)
	assert.Equal(t, near.Ref, got[0].Ref)
	assert.Equal(t, far.Ref, got[1].Ref)

	// Identical score and date: lower id wins regardless of input order.
	twinA := candidate(1000, day(10), "rent")
	twinB := candidate(1000, day(10), "rent")

	ab := engine.Rank(target, []ledger.Candidate{twinA, twinB})
	ba := engine.Rank(target, []ledger.Candidate{twinB, twinA})

	require.Len(t, ab, 2)
	require.Len(t, ba, 2)
	assert.Equal(t, ab[0].Ref, ba[0].Ref)
	assert.Equal(t, ab[1].Ref, ba[1].Ref)
}

func TestEngine_Rank_FloorFiltersWeakCandidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinScore = 0.9
	engine := NewEngine(cfg)

	target := Target{Amount: -2000, Date: day(5), Descriptor: "software subscription"}

	strong := candidate(2000, day(5), "software subscription")
	weak := candidate(2000, day(9), "misc")

	got := engine.Rank(target, []ledger.Candidate{weak, strong})

	require.Len(t, got, 1)
	assert.Equal(t, strong.Ref, got[0].Ref)
}

func TestEngine_AmountScore(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	type testCase struct {
		name   string
		target int64
		cand   int64
		want   float64
	}

	tests := []testCase{
		{name: "Exact", target: -12050, cand: 12050, want: 1},
		{name: "ExactSameSign", target: 12050, cand: 12050, want: 1},
		{name: "HalfTolerance", target: -12050, cand: 12100, want: 0.75},
		{name: "EdgeOfTolerance", target: -12050, cand: 12150, want: 0.5},
		{name: "BeyondTolerance", target: -12050, cand: 12151, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, engine.amountScore(tt.target, tt.cand), 1e-9)
		})
	}
}

func TestEngine_DateScore_IgnoresTimeOfDay(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	morning := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)

	assert.InDelta(t, 1.0, engine.dateScore(morning, evening), 1e-9)
	assert.InDelta(t, 0.8, engine.dateScore(day(10), day(11)), 1e-9)
	assert.InDelta(t, 0.0, engine.dateScore(day(10), day(16)), 1e-9)
}

func TestTokenOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, tokenOverlap("Acme Supplies", "acme supplies"), 1e-9)
	assert.InDelta(t, 0.0, tokenOverlap("acme", "globex"), 1e-9)
	assert.InDelta(t, 0.0, tokenOverlap("", "anything"), 1e-9)

	// Punctuation is stripped and single-char tokens dropped.
	assert.InDelta(t, 1.0, tokenOverlap("invoice #4417, (acme)", "4417 invoice acme"), 1e-9)
}
