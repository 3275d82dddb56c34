package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostEntry is one immutable record of a single LLM invocation. Entries are
// insert-only; no code in this service updates or deletes them.
type CostEntry struct {
	ID               string          `db:"id" json:"id"`
	UserID           string          `db:"user_id" json:"user_id"`
	Model            string          `db:"model" json:"model"`
	PromptTokens     int             `db:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int             `db:"completion_tokens" json:"completion_tokens"`
	TotalTokens      int             `db:"total_tokens" json:"total_tokens"`
	EstimatedCost    decimal.Decimal `db:"estimated_cost" json:"estimated_cost"`
	Feature          string          `db:"feature" json:"feature"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// CostSummary aggregates ledger entries over a half-open [start, end) range.
type CostSummary struct {
	TotalCost   decimal.Decimal            `json:"total_cost"`
	TotalTokens int64                      `json:"total_tokens"`
	ByModel     map[string]decimal.Decimal `json:"by_model"`
	ByFeature   map[string]decimal.Decimal `json:"by_feature"`
	EntryCount  int64                      `json:"entry_count"`
}

// AllUsersCostSummary is the administrative variant with a per-user breakdown.
type AllUsersCostSummary struct {
	CostSummary
	ByUser map[string]decimal.Decimal `json:"by_user"`
}
