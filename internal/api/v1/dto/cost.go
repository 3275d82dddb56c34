package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostSummaryResponseDTO is the aggregated cost view over a date range.
// ByUser is only present on the administrative all-users variant.
type CostSummaryResponseDTO struct {
	UserID      string                     `json:"user_id,omitempty"`
	Period      string                     `json:"period"`
	StartDate   time.Time                  `json:"start_date"`
	EndDate     time.Time                  `json:"end_date"`
	TotalCost   decimal.Decimal            `json:"total_cost"`
	TotalTokens int64                      `json:"total_tokens"`
	ByModel     map[string]decimal.Decimal `json:"by_model"`
	ByFeature   map[string]decimal.Decimal `json:"by_feature"`
	ByUser      map[string]decimal.Decimal `json:"by_user,omitempty"`
	EntryCount  int64                      `json:"entry_count"`
}

// CostReportRequestDTO requests a CSV export of the all-users aggregate.
type CostReportRequestDTO struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// CostReportResponseDTO returns the key of the uploaded report object.
type CostReportResponseDTO struct {
	ObjectKey string `json:"object_key"`
}
