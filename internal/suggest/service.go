package suggest

import (
	"context"
	"time"

	"github.com/clearbooks/reconcile/internal/ledger"
)

// CandidateSource lists unconsumed ledger documents inside a window.
type CandidateSource interface {
	OpenCandidates(ctx context.Context, from, to time.Time) ([]ledger.Candidate, error)
}

// Result groups ranked candidates by document kind, mirroring how the
// admin UI presents them.
type Result struct {
	Documents      []Scored
	JournalEntries []Scored
}

// Service wraps the pure engine with candidate retrieval. Suggest is
// read-only and safe to call repeatedly.
type Service struct {
	engine     *Engine
	candidates CandidateSource
}

func NewService(engine *Engine, candidates CandidateSource) *Service {
	return &Service{engine: engine, candidates: candidates}
}

// Suggest ranks open ledger documents for the unit described by target.
func (s *Service) Suggest(ctx context.Context, target Target) (*Result, error) {
	window := time.Duration(s.engine.cfg.DateWindowDays) * 24 * time.Hour

	candidates, err := s.candidates.OpenCandidates(ctx, target.Date.Add(-window), target.Date.Add(window))
	if err != nil {
		return nil, err
	}

	ranked := s.engine.Rank(target, candidates)

	result := &Result{}

	for _, sc := range ranked {
		switch sc.Ref.Kind {
		case ledger.RefJournalEntry:
			result.JournalEntries = append(result.JournalEntries, sc)
		case ledger.RefDocument:
			result.Documents = append(result.Documents, sc)
		}
	}

	return result, nil
}

// Ranked returns the combined ranked list, used by auto-match to walk
// candidates best-first.
func (s *Service) Ranked(ctx context.Context, target Target) ([]Scored, error) {
	window := time.Duration(s.engine.cfg.DateWindowDays) * 24 * time.Hour

	candidates, err := s.candidates.OpenCandidates(ctx, target.Date.Add(-window), target.Date.Add(window))
	if err != nil {
		return nil, err
	}

	return s.engine.Rank(target, candidates), nil
}
