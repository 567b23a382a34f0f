package domain

import "github.com/shopspring/decimal"

// ArchivedQuote is a quote read back from the archive. Numeric is nil when the
// price text is not a number.
type ArchivedQuote struct {
	Quote   Quote
	Numeric *decimal.Decimal
}
