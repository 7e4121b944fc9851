package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	GetJournalEntry(ctx context.Context, id uuid.UUID) (*JournalEntry, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	CreateJournalEntry(ctx context.Context, entry *JournalEntry) error
	CreateDocument(ctx context.Context, doc *Document) error

	// ListOpenCandidates returns ledger documents dated inside the
	// window that have no active match.
	ListOpenCandidates(ctx context.Context, from, to time.Time) ([]Candidate, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve loads the document behind a ref, or ErrNotFound.
func (s *Service) Resolve(ctx context.Context, ref DocumentRef) (Candidate, error) {
	switch ref.Kind {
	case RefJournalEntry:
		entry, err := s.repo.GetJournalEntry(ctx, ref.ID)
		if err != nil {
			return Candidate{}, err
		}

		return Candidate{Ref: ref, Amount: entry.Amount, Date: entry.Date, Descriptor: entry.Memo}, nil
	case RefDocument:
		doc, err := s.repo.GetDocument(ctx, ref.ID)
		if err != nil {
			return Candidate{}, err
		}

		return Candidate{Ref: ref, Amount: doc.Amount, Date: doc.Date, Descriptor: doc.Name}, nil
	default:
		return Candidate{}, ErrNotFound
	}
}

func (s *Service) OpenCandidates(ctx context.Context, from, to time.Time) ([]Candidate, error) {
	return s.repo.ListOpenCandidates(ctx, from, to)
}

func (s *Service) CreateJournalEntry(ctx context.Context, entry *JournalEntry) error {
	return s.repo.CreateJournalEntry(ctx, entry)
}

func (s *Service) CreateDocument(ctx context.Context, doc *Document) error {
	return s.repo.CreateDocument(ctx, doc)
}
