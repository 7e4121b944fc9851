package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RefKind distinguishes the two kinds of ledger documents a match can
// point at.
type RefKind string

const (
	RefJournalEntry RefKind = "journal_entry"
	RefDocument     RefKind = "document"
)

// DocumentRef identifies one ledger document: a posted journal entry or
// an externally created document.
type DocumentRef struct {
	Kind RefKind
	ID   uuid.UUID
}

func JournalEntryRef(id uuid.UUID) DocumentRef {
	return DocumentRef{Kind: RefJournalEntry, ID: id}
}

func DocRef(id uuid.UUID) DocumentRef {
	return DocumentRef{Kind: RefDocument, ID: id}
}

// JournalEntry is a posted general-ledger entry owned by the external
// posting engine. This service only reads them as match targets.
type JournalEntry struct {
	ID        uuid.UUID
	EntryNo   string
	Date      time.Time
	Memo      string
	Amount    int64
	CreatedAt time.Time
}

// Document is an externally created document (an uploaded invoice or
// receipt reference) eligible as a match target.
type Document struct {
	ID        uuid.UUID
	Name      string
	Date      time.Time
	Amount    int64
	URL       string
	CreatedAt time.Time
}

// Candidate is the unified match-target shape the suggestion engine
// ranks.
type Candidate struct {
	Ref        DocumentRef
	Amount     int64
	Date       time.Time
	Descriptor string
}

var ErrNotFound = errors.New("ledger document not found")
