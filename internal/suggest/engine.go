package suggest

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/clearbooks/reconcile/internal/ledger"
)

// Config holds the ranking weights and cutoffs. Weights are expected to
// sum to 1.0 so the final score stays in [0,1].
type Config struct {
	AmountWeight float64
	DateWeight   float64
	TextWeight   float64

	// AmountToleranceCents bounds the partial-credit band around an
	// exact amount match.
	AmountToleranceCents int64

	// DateWindowDays is the half-width of the candidate date window;
	// the date score decays linearly to 0 at the window edge.
	DateWindowDays int

	// MinScore is the floor below which candidates are not returned.
	MinScore float64
}

func DefaultConfig() Config {
	return Config{
		AmountWeight:         0.6,
		DateWeight:           0.25,
		TextWeight:           0.15,
		AmountToleranceCents: 100,
		DateWindowDays:       5,
		MinScore:             0.3,
	}
}

// Target is the matchable unit being scored against candidates.
type Target struct {
	Amount     int64
	Date       time.Time
	Descriptor string
}

// Scored pairs a candidate with its confidence score in [0,1].
type Scored struct {
	ledger.Candidate
	Score float64
}

// Engine ranks ledger candidates for a matchable unit. Ranking is a
// pure function of its inputs: no state, no randomness, repeated calls
// with the same inputs yield the same order.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Rank scores every candidate and returns those at or above the
// configured floor, best first. Ties are broken by closer date, then by
// lower candidate id.
func (e *Engine) Rank(target Target, candidates []ledger.Candidate) []Scored {
	scored := make([]Scored, 0, len(candidates))

	for _, c := range candidates {
		score := e.score(target, c)
		if score < e.cfg.MinScore {
			continue
		}

		scored = append(scored, Scored{Candidate: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}

		di := absDays(target.Date, scored[i].Date)
		dj := absDays(target.Date, scored[j].Date)

		if di != dj {
			return di < dj
		}

		return bytes.Compare(scored[i].Ref.ID[:], scored[j].Ref.ID[:]) < 0
	})

	return scored
}

func (e *Engine) score(target Target, c ledger.Candidate) float64 {
	return e.cfg.AmountWeight*e.amountScore(target.Amount, c.Amount) +
		e.cfg.DateWeight*e.dateScore(target.Date, c.Date) +
		e.cfg.TextWeight*tokenOverlap(target.Descriptor, c.Descriptor)
}

// amountScore is 1 for an exact match, decays to 0.5 across the
// tolerance band, and is 0 beyond it. Signs must agree in direction:
// a bank debit is compared against the document amount by magnitude.
func (e *Engine) amountScore(a, b int64) float64 {
	diff := abs64(a) - abs64(b)
	if diff < 0 {
		diff = -diff
	}

	if diff == 0 {
		return 1
	}

	if e.cfg.AmountToleranceCents <= 0 || diff > e.cfg.AmountToleranceCents {
		return 0
	}

	return 1 - 0.5*float64(diff)/float64(e.cfg.AmountToleranceCents)
}

func (e *Engine) dateScore(a, b time.Time) float64 {
	if e.cfg.DateWindowDays <= 0 {
		return 0
	}

	days := absDays(a, b)
	if days > e.cfg.DateWindowDays {
		return 0
	}

	return 1 - float64(days)/float64(e.cfg.DateWindowDays)
}

// absDays compares calendar dates, ignoring time of day.
func absDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	days := int(au.Sub(bu).Hours() / 24)
	if days < 0 {
		days = -days
	}

	return days
}

// tokenOverlap is a normalised token intersection score (Jaccard) over
// lowercased whitespace-separated tokens.
func tokenOverlap(a, b string) float64 {
	at := tokenize(a)
	bt := tokenize(b)

	if len(at) == 0 || len(bt) == 0 {
		return 0
	}

	var shared int

	for tok := range at {
		if bt[tok] {
			shared++
		}
	}

	union := len(at) + len(bt) - shared

	return float64(shared) / float64(union)
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)

	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,;:()[]\"'#*")
		if len(tok) > 1 {
			tokens[tok] = true
		}
	}

	return tokens
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
