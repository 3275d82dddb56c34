package service

import (
	"context"
	"fmt"

	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ResetService is the contract invoked by the external time-based trigger.
// It owns no state and no schedule: each call is an unconditional sweep, and
// deciding whether the boundary has passed belongs to the trigger.
type ResetService interface {
	// ResetDailyUsage zeroes every user's daily counter and returns the
	// number of users swept. Safe to call more than once per boundary.
	ResetDailyUsage(ctx context.Context) (int64, error)
	// ResetWeeklyUsage zeroes every user's weekly counters and returns the
	// number of users swept.
	ResetWeeklyUsage(ctx context.Context) (int64, error)
}

type resetService struct {
	repo   repository.UsageRepository
	logger zerolog.Logger
}

// NewResetService creates a new ResetService with a scoped logger.
func NewResetService(repo repository.UsageRepository, logger zerolog.Logger) ResetService {
	return &resetService{
		repo:   repo,
		logger: logger.With().Str("service", "ResetService").Logger(),
	}
}

func (s *resetService) ResetDailyUsage(ctx context.Context) (int64, error) {
	count, err := s.repo.ResetDaily(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Daily usage reset failed")
		return 0, fmt.Errorf("resetting daily usage: %w", err)
	}
	s.logger.Info().Int64("count", count).Msg("Daily usage counters reset")
	return count, nil
}

func (s *resetService) ResetWeeklyUsage(ctx context.Context) (int64, error) {
	count, err := s.repo.ResetWeekly(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Weekly usage reset failed")
		return 0, fmt.Errorf("resetting weekly usage: %w", err)
	}
	s.logger.Info().Int64("count", count).Msg("Weekly usage counters reset")
	return count, nil
}
