package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrUnknownFeature = errors.New("unknown feature")
)

// UsageService exposes the usage counter store to the HTTP layer and to the
// metering ingest path. Reads always hit the store; a failed read surfaces
// as an error, never as a fabricated zero-usage snapshot.
type UsageService interface {
	GetUsage(ctx context.Context, userID string) (*model.UserUsage, error)
	IncrementCounter(ctx context.Context, userID string, counter model.Counter, amount int64) error
	AddVoiceMinutes(ctx context.Context, userID string, minutes decimal.Decimal) error
	// RecordFeatureUsage bumps the counter belonging to the feature that
	// just invoked an LLM. For discrete features units is a count
	// (defaulting to 1); for voice it is fractional minutes.
	RecordFeatureUsage(ctx context.Context, userID, feature string, units decimal.Decimal) error
}

type usageService struct {
	repo   repository.UsageRepository
	logger zerolog.Logger
}

// NewUsageService creates a new UsageService with a scoped logger.
func NewUsageService(repo repository.UsageRepository, logger zerolog.Logger) UsageService {
	return &usageService{
		repo:   repo,
		logger: logger.With().Str("service", "UsageService").Logger(),
	}
}

func (s *usageService) GetUsage(ctx context.Context, userID string) (*model.UserUsage, error) {
	usage, err := s.repo.GetUsage(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch usage")
		return nil, fmt.Errorf("fetching usage: %w", err)
	}
	return usage, nil
}

func (s *usageService) IncrementCounter(ctx context.Context, userID string, counter model.Counter, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := s.repo.IncrementCounter(ctx, userID, counter, amount); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", userID).Str("counter", string(counter)).Msg("Failed to increment counter")
		return fmt.Errorf("incrementing counter: %w", err)
	}
	return nil
}

func (s *usageService) AddVoiceMinutes(ctx context.Context, userID string, minutes decimal.Decimal) error {
	if !minutes.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.repo.AddVoiceMinutes(ctx, userID, minutes); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to add voice minutes")
		return fmt.Errorf("adding voice minutes: %w", err)
	}
	return nil
}

func (s *usageService) RecordFeatureUsage(ctx context.Context, userID, feature string, units decimal.Decimal) error {
	switch feature {
	case model.FeatureChat:
		return s.IncrementCounter(ctx, userID, model.CounterChatUsedToday, discreteUnits(units))
	case model.FeatureVideo:
		return s.IncrementCounter(ctx, userID, model.CounterVideosThisWeek, discreteUnits(units))
	case model.FeatureImage:
		return s.IncrementCounter(ctx, userID, model.CounterImagesThisWeek, discreteUnits(units))
	case model.FeatureVoice:
		return s.AddVoiceMinutes(ctx, userID, units)
	default:
		return ErrUnknownFeature
	}
}

func discreteUnits(units decimal.Decimal) int64 {
	if n := units.IntPart(); n > 0 {
		return n
	}
	return 1
}
