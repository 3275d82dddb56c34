package dto

import "github.com/shopspring/decimal"

func init() {
	// Monetary and counter values are emitted as JSON numbers, not strings,
	// to match what the frontend consumes.
	decimal.MarshalJSONWithoutQuotes = true
}
