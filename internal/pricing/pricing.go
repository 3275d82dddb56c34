// Package pricing holds the per-model token price table used to compute
// estimated ledger costs at insert time.
package pricing

import (
	"github.com/shopspring/decimal"
)

// modelRate is the USD price per one million tokens.
type modelRate struct {
	Prompt     decimal.Decimal
	Completion decimal.Decimal
}

func rate(prompt, completion string) modelRate {
	return modelRate{
		Prompt:     decimal.RequireFromString(prompt),
		Completion: decimal.RequireFromString(completion),
	}
}

var rates = map[string]modelRate{
	"gpt-4o":            rate("2.50", "10.00"),
	"gpt-4o-mini":       rate("0.15", "0.60"),
	"gpt-4.1":           rate("2.00", "8.00"),
	"gpt-4.1-mini":      rate("0.40", "1.60"),
	"o3-mini":           rate("1.10", "4.40"),
	"claude-3-5-sonnet": rate("3.00", "15.00"),
	"claude-3-5-haiku":  rate("0.80", "4.00"),
	"gemini-2.0-flash":  rate("0.10", "0.40"),
	"whisper-1":         rate("6.00", "0.00"),
}

// defaultRate covers models missing from the table. Priced at the high end
// so an unpriced model never under-reports spend.
var defaultRate = rate("5.00", "15.00")

var tokensPerUnit = decimal.NewFromInt(1_000_000)

// KnownModel reports whether the model has an explicit price entry.
func KnownModel(model string) bool {
	_, ok := rates[model]
	return ok
}

// EstimateCost computes the USD cost of one invocation from its token
// counts, rounded to 6 decimal places.
func EstimateCost(model string, promptTokens, completionTokens int) decimal.Decimal {
	r, ok := rates[model]
	if !ok {
		r = defaultRate
	}
	promptCost := r.Prompt.Mul(decimal.NewFromInt(int64(promptTokens))).Div(tokensPerUnit)
	completionCost := r.Completion.Mul(decimal.NewFromInt(int64(completionTokens))).Div(tokensPerUnit)
	return promptCost.Add(completionCost).Round(6)
}
