package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"app/internal/model"

	"github.com/shopspring/decimal"
)

func TestRenderCostReportIsDeterministic(t *testing.T) {
	summary := &model.AllUsersCostSummary{
		CostSummary: model.CostSummary{
			TotalCost:   decimal.RequireFromString("1.25"),
			TotalTokens: 50_000,
			ByModel: map[string]decimal.Decimal{
				"gpt-4o":      decimal.RequireFromString("1.00"),
				"gpt-4o-mini": decimal.RequireFromString("0.25"),
			},
			ByFeature: map[string]decimal.Decimal{
				"chat":  decimal.RequireFromString("1.20"),
				"image": decimal.RequireFromString("0.05"),
			},
			EntryCount: 12,
		},
		ByUser: map[string]decimal.Decimal{
			"user-b": decimal.RequireFromString("0.25"),
			"user-a": decimal.RequireFromString("1.00"),
		},
	}
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	first, err := renderCostReport(summary, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := renderCostReport(summary, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("the same ledger state must render the same file")
	}

	records, err := csv.NewReader(bytes.NewReader(first)).ReadAll()
	if err != nil {
		t.Fatalf("report is not valid CSV: %v", err)
	}

	var userRows [][]string
	var totalRow []string
	for _, rec := range records {
		switch rec[0] {
		case "by_user":
			userRows = append(userRows, rec)
		case "total":
			totalRow = rec
		}
	}
	if totalRow == nil || totalRow[2] != "1.25" || totalRow[3] != "50000" {
		t.Fatalf("unexpected total row: %v", totalRow)
	}
	if len(userRows) != 2 || userRows[0][1] != "user-a" || userRows[1][1] != "user-b" {
		t.Fatalf("expected per-user rows in lexicographic order, got %v", userRows)
	}
}
