package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestResetDailyUsageReturnsSweptCount(t *testing.T) {
	repo := &mockUsageRepo{
		resetDaily: func(ctx context.Context) (int64, error) { return 42, nil },
	}
	svc := NewResetService(repo, zerolog.Nop())

	count, err := svc.ResetDailyUsage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42 users swept, got %d", count)
	}
}

func TestResetDailyUsageSweepsOnEveryCall(t *testing.T) {
	// The service carries no date guard: a second call inside the same
	// boundary sweeps again and reports the same count.
	calls := 0
	repo := &mockUsageRepo{
		resetDaily: func(ctx context.Context) (int64, error) {
			calls++
			return 10, nil
		},
	}
	svc := NewResetService(repo, zerolog.Nop())

	for i := 0; i < 2; i++ {
		count, err := svc.ResetDailyUsage(context.Background())
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if count != 10 {
			t.Fatalf("call %d: expected count 10, got %d", i+1, count)
		}
	}
	if calls != 2 {
		t.Fatalf("expected the store to be swept twice, got %d sweeps", calls)
	}
}

func TestResetWeeklyUsageReturnsSweptCount(t *testing.T) {
	repo := &mockUsageRepo{
		resetWeekly: func(ctx context.Context) (int64, error) { return 7, nil },
	}
	svc := NewResetService(repo, zerolog.Nop())

	count, err := svc.ResetWeeklyUsage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7 users swept, got %d", count)
	}
}

func TestResetSurfacesStoreFailure(t *testing.T) {
	storeErr := errors.New("deadlock detected")
	repo := &mockUsageRepo{
		resetDaily:  func(ctx context.Context) (int64, error) { return 0, storeErr },
		resetWeekly: func(ctx context.Context) (int64, error) { return 0, storeErr },
	}
	svc := NewResetService(repo, zerolog.Nop())

	if _, err := svc.ResetDailyUsage(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error from daily reset, got %v", err)
	}
	if _, err := svc.ResetWeeklyUsage(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error from weekly reset, got %v", err)
	}
}
