package handler

import (
	"context"
	"time"

	"app/internal/model"

	"github.com/shopspring/decimal"
)

type mockUsageService struct {
	getUsage           func(ctx context.Context, userID string) (*model.UserUsage, error)
	incrementCounter   func(ctx context.Context, userID string, counter model.Counter, amount int64) error
	addVoiceMinutes    func(ctx context.Context, userID string, minutes decimal.Decimal) error
	recordFeatureUsage func(ctx context.Context, userID, feature string, units decimal.Decimal) error
}

func (m *mockUsageService) GetUsage(ctx context.Context, userID string) (*model.UserUsage, error) {
	return m.getUsage(ctx, userID)
}

func (m *mockUsageService) IncrementCounter(ctx context.Context, userID string, counter model.Counter, amount int64) error {
	return m.incrementCounter(ctx, userID, counter, amount)
}

func (m *mockUsageService) AddVoiceMinutes(ctx context.Context, userID string, minutes decimal.Decimal) error {
	return m.addVoiceMinutes(ctx, userID, minutes)
}

func (m *mockUsageService) RecordFeatureUsage(ctx context.Context, userID, feature string, units decimal.Decimal) error {
	return m.recordFeatureUsage(ctx, userID, feature, units)
}

type mockCostService struct {
	recordCost       func(ctx context.Context, e *model.CostEntry) error
	getUserCosts     func(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error)
	getAllUsersCosts func(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error)
}

func (m *mockCostService) RecordCost(ctx context.Context, e *model.CostEntry) error {
	return m.recordCost(ctx, e)
}

func (m *mockCostService) GetUserCosts(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error) {
	return m.getUserCosts(ctx, userID, start, end)
}

func (m *mockCostService) GetAllUsersCosts(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error) {
	return m.getAllUsersCosts(ctx, start, end)
}

type mockResetService struct {
	resetDaily  func(ctx context.Context) (int64, error)
	resetWeekly func(ctx context.Context) (int64, error)
}

func (m *mockResetService) ResetDailyUsage(ctx context.Context) (int64, error) {
	return m.resetDaily(ctx)
}

func (m *mockResetService) ResetWeeklyUsage(ctx context.Context) (int64, error) {
	return m.resetWeekly(ctx)
}

type mockReportService struct {
	export func(ctx context.Context, start, end time.Time) (string, error)
}

func (m *mockReportService) ExportAllUsersCosts(ctx context.Context, start, end time.Time) (string, error) {
	return m.export(ctx, start, end)
}
