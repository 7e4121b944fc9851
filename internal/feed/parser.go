package feed

import (
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	"github.com/clearbooks/reconcile/internal/transaction"
)

// Parser reads a bank CSV export and produces import rows for the
// transaction store. The layout is auto-detected by matching column
// headers against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.ImportRow, error) {
	utf8r, err := decodeToUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching feed format: expected a header with date, description, and amount columns")
	}

	return parseRows(profile, cols, rows[headerIdx+1:])
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string) ([]transaction.ImportRow, error) {
	out := make([]transaction.ImportRow, 0, len(rows))
	occurrences := make(map[string]int)

	for _, row := range rows {
		if isBlank(row) {
			continue
		}

		var imp transaction.ImportRow

		imp.Description = strings.TrimSpace(cell(row, cols, p.DescCol))

		dateStr := strings.TrimSpace(cell(row, cols, p.DateCol))
		for _, layout := range p.DateLayouts {
			if d, err := time.Parse(layout, dateStr); err == nil {
				imp.Date = d
				break
			}
		}

		if amountStr := cell(row, cols, p.AmountCol); strings.TrimSpace(amountStr) != "" {
			if cents, err := parseAmount(amountStr); err == nil {
				imp.Amount = &cents
			}
		}

		if p.MerchantCol != "" {
			imp.Merchant = strings.TrimSpace(cell(row, cols, p.MerchantCol))
		}

		if p.CategoryCol != "" {
			imp.Category = strings.TrimSpace(cell(row, cols, p.CategoryCol))
		}

		if p.RefCol != "" {
			imp.ExternalID = strings.TrimSpace(cell(row, cols, p.RefCol))
		}

		// Feeds without a reference column still need a stable dedup
		// key; derive one from the row's identifying fields. Repeated
		// identical rows in one file get an occurrence suffix so two
		// same-day identical purchases both survive.
		if imp.ExternalID == "" {
			key := deriveExternalID(imp)
			if n := occurrences[key]; n > 0 {
				imp.ExternalID = fmt.Sprintf("%s-%d", key, n)
			} else {
				imp.ExternalID = key
			}
			occurrences[key]++
		}

		// Rows with a missing date or amount flow through so the
		// import can record them as skipped with a reason.
		out = append(out, imp)
	}

	return out, nil
}

func cell(row []string, cols colIndex, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return row[idx]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

// deriveExternalID hashes date, amount, and description into a
// deterministic id so re-uploading the same export stays idempotent.
func deriveExternalID(row transaction.ImportRow) string {
	h := fnv.New64a()

	fmt.Fprintf(h, "%s|", row.Date.Format(time.DateOnly))

	if row.Amount != nil {
		fmt.Fprintf(h, "%d|", *row.Amount)
	}

	h.Write([]byte(row.Description))

	return fmt.Sprintf("csv-%016x", h.Sum64())
}
