package feed

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount parses a statement amount string into signed minor units.
// Both decimal conventions appear in bank exports: "1,234.56" and
// "1.234,56"; whichever separator comes last is the decimal point.
// Currency symbols and spaces are stripped first.
func parseAmount(s string) (int64, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', '$', '€', '£':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}

	// Parenthesised amounts are negative in some exports.
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = clean[1 : len(clean)-1]
	}

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	switch {
	case lastComma > lastDot:
		// European: dot groups thousands, comma is the decimal mark.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	default:
		// US-style or integer: commas group thousands.
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if negative {
		cents = -cents
	}

	return cents, nil
}
