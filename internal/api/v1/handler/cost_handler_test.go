package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func adminOnly(adminID string) IsAdminFunc {
	return func(userID string) bool { return userID == adminID }
}

func reportRequest(body, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/costs/reports", strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, userID))
}

func TestGetCostsAggregatesCallerLedger(t *testing.T) {
	var gotUserID string
	var gotStart, gotEnd time.Time
	svc := &mockCostService{
		getUserCosts: func(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error) {
			gotUserID = userID
			gotStart = start
			gotEnd = end
			return &model.CostSummary{
				TotalCost:   decimal.RequireFromString("0.06"),
				TotalTokens: 45_000,
				ByModel: map[string]decimal.Decimal{
					"gpt-4o":      decimal.RequireFromString("0.05"),
					"gpt-4o-mini": decimal.RequireFromString("0.01"),
				},
				ByFeature:  map[string]decimal.Decimal{"chat": decimal.RequireFromString("0.06")},
				EntryCount: 3,
			}, nil
		},
	}
	h := NewCostHandler(svc, nil, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.getCosts(rec, authedRequest(http.MethodGet, "/costs/me", "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUserID != "user-1" {
		t.Fatalf("expected aggregation scoped to user-1, got %q", gotUserID)
	}
	if window := gotEnd.Sub(gotStart); window < 29*24*time.Hour || window > 31*24*time.Hour {
		t.Fatalf("expected a default 30-day window, got %s", window)
	}

	var resp dto.CostSummaryResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Period != "30d" || resp.UserID != "user-1" {
		t.Fatalf("unexpected response envelope: %+v", resp)
	}
	if !resp.TotalCost.Equal(decimal.RequireFromString("0.06")) {
		t.Fatalf("expected total 0.06, got %s", resp.TotalCost)
	}
	if !resp.ByModel["gpt-4o-mini"].Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("unexpected by_model breakdown: %v", resp.ByModel)
	}
	if len(resp.ByUser) != 0 {
		t.Fatal("per-user breakdown must not leak into the non-admin view")
	}
}

func TestGetCostsCustomPeriod(t *testing.T) {
	var gotStart, gotEnd time.Time
	svc := &mockCostService{
		getUserCosts: func(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error) {
			gotStart = start
			gotEnd = end
			return &model.CostSummary{}, nil
		},
	}
	h := NewCostHandler(svc, nil, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.getCosts(rec, authedRequest(http.MethodGet, "/costs/me?period_days=7", "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if window := gotEnd.Sub(gotStart); window < 6*24*time.Hour || window > 8*24*time.Hour {
		t.Fatalf("expected a 7-day window, got %s", window)
	}
}

func TestGetCostsInvalidPeriodFallsBackToDefault(t *testing.T) {
	var gotStart, gotEnd time.Time
	svc := &mockCostService{
		getUserCosts: func(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error) {
			gotStart = start
			gotEnd = end
			return &model.CostSummary{}, nil
		},
	}
	h := NewCostHandler(svc, nil, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	for _, q := range []string{"period_days=0", "period_days=-5", "period_days=9999", "period_days=abc"} {
		rec := httptest.NewRecorder()
		h.getCosts(rec, authedRequest(http.MethodGet, "/costs/me?"+q, "user-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", q, rec.Code)
		}
		if window := gotEnd.Sub(gotStart); window < 29*24*time.Hour || window > 31*24*time.Hour {
			t.Fatalf("%s: expected fallback to the 30-day window, got %s", q, window)
		}
	}
}

func TestGetCostsAdminViewRequiresAdmin(t *testing.T) {
	svc := &mockCostService{
		getAllUsersCosts: func(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error) {
			t.Fatal("all-users aggregation must not run for non-admins")
			return nil, nil
		},
	}
	h := NewCostHandler(svc, nil, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.getCosts(rec, authedRequest(http.MethodGet, "/costs/me?admin=true", "user-1"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-admin, got %d", rec.Code)
	}
}

func TestGetCostsAdminViewIncludesPerUserBreakdown(t *testing.T) {
	svc := &mockCostService{
		getAllUsersCosts: func(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error) {
			return &model.AllUsersCostSummary{
				CostSummary: model.CostSummary{
					TotalCost:  decimal.RequireFromString("1.25"),
					EntryCount: 10,
				},
				ByUser: map[string]decimal.Decimal{
					"user-1": decimal.RequireFromString("1.00"),
					"user-2": decimal.RequireFromString("0.25"),
				},
			}, nil
		},
	}
	h := NewCostHandler(svc, nil, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.getCosts(rec, authedRequest(http.MethodGet, "/costs/me?admin=true", "admin-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.CostSummaryResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !resp.ByUser["user-1"].Equal(decimal.RequireFromString("1.00")) {
		t.Fatalf("expected per-user breakdown, got %v", resp.ByUser)
	}
	if resp.UserID != "" {
		t.Fatalf("all-users view must not carry a single user_id, got %q", resp.UserID)
	}
}

func TestExportReportRequiresAdmin(t *testing.T) {
	h := NewCostHandler(&mockCostService{}, &mockReportService{}, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.exportReport(rec, authedRequest(http.MethodPost, "/costs/reports", "user-1"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestExportReportUnconfiguredIs503(t *testing.T) {
	h := NewCostHandler(&mockCostService{}, nil, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.exportReport(rec, authedRequest(http.MethodPost, "/costs/reports", "admin-1"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when export is not configured, got %d", rec.Code)
	}
}

func TestExportReportReturnsObjectKey(t *testing.T) {
	report := &mockReportService{
		export: func(ctx context.Context, start, end time.Time) (string, error) {
			return "cost-reports/costs_2026-07-01_2026-08-01_abc.csv", nil
		},
	}
	h := NewCostHandler(&mockCostService{}, report, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	body := `{"start_date":"2026-07-01T00:00:00Z","end_date":"2026-08-01T00:00:00Z"}`
	req := reportRequest(body, "admin-1")
	rec := httptest.NewRecorder()
	h.exportReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.CostReportResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.ObjectKey == "" {
		t.Fatal("expected an object key")
	}
}

func TestExportReportRejectsInvertedRange(t *testing.T) {
	h := NewCostHandler(&mockCostService{}, &mockReportService{}, adminOnly("admin-1"), validator.New(), zerolog.Nop())

	body := `{"start_date":"2026-08-01T00:00:00Z","end_date":"2026-07-01T00:00:00Z"}`
	req := reportRequest(body, "admin-1")
	rec := httptest.NewRecorder()
	h.exportReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an inverted date range, got %d", rec.Code)
	}
}
