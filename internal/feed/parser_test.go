package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_Generic(t *testing.T) {
	csv := `Date,Description,Amount,Reference,Merchant,Category
2024-03-10,COFFEE ROASTERS,-4.50,ref-001,Coffee Roasters,Meals
2024-03-11,"CLIENT PAYMENT, MARCH",1250.00,ref-002,,
`

	p := NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2024, 3, 10), rows[0].Date)
	assert.Equal(t, "COFFEE ROASTERS", rows[0].Description)
	require.NotNil(t, rows[0].Amount)
	assert.Equal(t, int64(-450), *rows[0].Amount)
	assert.Equal(t, "ref-001", rows[0].ExternalID)
	assert.Equal(t, "Coffee Roasters", rows[0].Merchant)
	assert.Equal(t, "Meals", rows[0].Category)

	assert.Equal(t, "CLIENT PAYMENT, MARCH", rows[1].Description)
	require.NotNil(t, rows[1].Amount)
	assert.Equal(t, int64(125000), *rows[1].Amount)
}

func TestParser_StatementExportWithPreamble(t *testing.T) {
	csv := `Account statement,,,
Generated,2024-04-01,,

Transaction Date,Details,Value,Transaction ID
15-03-2024,OFFICE SUPPLIES LTD,"-1,234.56",stmt-9001
16-03-2024,REFUND,(25.00),stmt-9002
`

	p := NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2024, 3, 15), rows[0].Date)
	assert.Equal(t, "stmt-9001", rows[0].ExternalID)
	require.NotNil(t, rows[0].Amount)
	assert.Equal(t, int64(-123456), *rows[0].Amount)

	require.NotNil(t, rows[1].Amount)
	assert.Equal(t, int64(-2500), *rows[1].Amount, "parenthesised amounts are negative")
}

func TestParser_DerivedExternalIDs(t *testing.T) {
	// No Reference column: ids are derived from row content.
	csv := `date,description,amount
2024-03-10,coffee,-4.50
2024-03-10,coffee,-4.50
2024-03-11,coffee,-4.50
`

	p := NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.NotEmpty(t, rows[0].ExternalID)
	assert.NotEqual(t, rows[0].ExternalID, rows[1].ExternalID,
		"identical same-day rows must get distinct ids")
	assert.NotEqual(t, rows[0].ExternalID, rows[2].ExternalID)

	// Re-parsing the same file yields the same ids, so a re-upload
	// dedups against the first import.
	again, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, again, 3)

	for i := range rows {
		assert.Equal(t, rows[i].ExternalID, again[i].ExternalID)
	}
}

func TestParser_MalformedRowsFlowThrough(t *testing.T) {
	csv := `Date,Description,Amount
2024-03-10,missing amount,
not-a-date,bad date,-1.00
,,
2024-03-12,fine,-2.00
`

	p := NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3, "blank rows are dropped, malformed ones kept for skip reporting")

	assert.Nil(t, rows[0].Amount)
	assert.True(t, rows[1].Date.IsZero())
	require.NotNil(t, rows[2].Amount)
	assert.Equal(t, int64(-200), *rows[2].Amount)
}

func TestParser_UnknownLayout(t *testing.T) {
	p := NewParser()

	_, err := p.Parse(strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorContains(t, err, "no matching feed format")
}

func TestParseAmount(t *testing.T) {
	type testCase struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}

	tests := []testCase{
		{name: "Plain", input: "12.50", want: 1250},
		{name: "Negative", input: "-12.50", want: -1250},
		{name: "Integer", input: "12", want: 1200},
		{name: "USThousands", input: "1,234.56", want: 123456},
		{name: "EuropeanThousands", input: "1.234,56", want: 123456},
		{name: "EuropeanNegative", input: "-588,74", want: -58874},
		{name: "CurrencySymbol", input: "$42.10", want: 4210},
		{name: "EuroSymbol", input: "€42,10", want: 4210},
		{name: "Parenthesised", input: "(25.00)", want: -2500},
		{name: "Spaces", input: " 1 250.00 ", want: 125000},
		{name: "Empty", input: "   ", wantErr: true},
		{name: "Garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
