package feed

// Profile describes one known bank CSV layout by its header names. The
// parser matches profiles against whatever header row it finds, so
// preamble lines above the header are tolerated.
type Profile struct {
	Name string

	DateCol   string
	DescCol   string
	AmountCol string

	// Optional columns; empty means the profile does not carry them.
	RefCol      string
	MerchantCol string
	CategoryCol string

	// DateLayouts are tried in order when parsing the date column.
	DateLayouts []string
}

func (p *Profile) requiredCols() []string {
	return []string{p.DateCol, p.DescCol, p.AmountCol}
}

var profiles = []Profile{
	{
		Name:        "generic",
		DateCol:     "Date",
		DescCol:     "Description",
		AmountCol:   "Amount",
		RefCol:      "Reference",
		MerchantCol: "Merchant",
		CategoryCol: "Category",
		DateLayouts: []string{"2006-01-02", "01/02/2006", "02/01/2006"},
	},
	{
		Name:        "generic-lowercase",
		DateCol:     "date",
		DescCol:     "description",
		AmountCol:   "amount",
		RefCol:      "reference",
		MerchantCol: "merchant",
		CategoryCol: "category",
		DateLayouts: []string{"2006-01-02", "01/02/2006", "02/01/2006"},
	},
	{
		Name:        "statement-export",
		DateCol:     "Transaction Date",
		DescCol:     "Details",
		AmountCol:   "Value",
		RefCol:      "Transaction ID",
		DateLayouts: []string{"02-01-2006", "2006-01-02"},
	},
}
