package dto

import (
	"github.com/shopspring/decimal"
)

// LLMUsageEventDTO is reported by feature services after each LLM
// invocation. Units is a count for discrete features (defaulting to 1) and
// fractional minutes for voice.
type LLMUsageEventDTO struct {
	UserID           string          `json:"user_id" validate:"required"`
	Feature          string          `json:"feature" validate:"required,oneof=chat image voice video"`
	Model            string          `json:"model" validate:"required"`
	PromptTokens     int             `json:"prompt_tokens" validate:"gte=0"`
	CompletionTokens int             `json:"completion_tokens" validate:"gte=0"`
	TotalTokens      int             `json:"total_tokens" validate:"gte=0"`
	Units            decimal.Decimal `json:"units"`
}
