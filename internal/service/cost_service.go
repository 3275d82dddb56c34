package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/pgmq"
	"app/internal/pricing"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrInvalidEntry is returned for a malformed cost record: token-sum
// mismatch, negative cost, or missing required fields.
var ErrInvalidEntry = errors.New("invalid cost entry")

// CostService owns the append-only cost ledger. Writes are best-effort from
// the caller's perspective: a transient insert failure is handed to the
// retry queue instead of failing the user-facing request, and is never
// swallowed silently.
type CostService interface {
	// RecordCost validates and appends one ledger entry. The estimated cost
	// is computed from the price table when the entry carries none. Only
	// validation failures are returned to the caller.
	RecordCost(ctx context.Context, e *model.CostEntry) error
	GetUserCosts(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error)
	GetAllUsersCosts(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error)
}

// RetryQueue is the subset of the pgmq client the ledger needs.
type RetryQueue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

type costService struct {
	repo      repository.CostRepository
	queue     RetryQueue
	queueName string
	logger    zerolog.Logger
}

// NewCostService creates a new CostService with a scoped logger.
func NewCostService(repo repository.CostRepository, queue RetryQueue, queueName string, logger zerolog.Logger) CostService {
	return &costService{
		repo:      repo,
		queue:     queue,
		queueName: queueName,
		logger:    logger.With().Str("service", "CostService").Logger(),
	}
}

var _ RetryQueue = (*pgmq.Client)(nil)

func (s *costService) RecordCost(ctx context.Context, e *model.CostEntry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	if e.EstimatedCost.IsZero() {
		e.EstimatedCost = pricing.EstimateCost(e.Model, e.PromptTokens, e.CompletionTokens)
	}

	if err := s.repo.InsertEntry(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("user_id", e.UserID).Str("model", e.Model).Msg("Cost entry insert failed; queueing for retry")
		s.enqueueForRetry(ctx, e)
		return nil
	}
	return nil
}

// enqueueForRetry hands a failed write to the retry orchestrator. If even
// the enqueue fails, the full entry is logged so the record can be replayed
// from logs; it is never dropped without a trace.
func (s *costService) enqueueForRetry(ctx context.Context, e *model.CostEntry) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Error().Err(err).Interface("entry", e).Msg("Failed to marshal cost entry for retry queue")
		return
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		s.logger.Error().Err(err).RawJSON("entry", payload).Msg("Failed to queue cost entry for retry; entry preserved in log only")
	}
}

func (s *costService) GetUserCosts(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error) {
	summary, err := s.repo.AggregateUserCosts(ctx, userID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to aggregate user costs")
		return nil, fmt.Errorf("aggregating user costs: %w", err)
	}
	return summary, nil
}

func (s *costService) GetAllUsersCosts(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error) {
	summary, err := s.repo.AggregateAllUsersCosts(ctx, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to aggregate all-users costs")
		return nil, fmt.Errorf("aggregating all-users costs: %w", err)
	}
	return summary, nil
}

func validateEntry(e *model.CostEntry) error {
	if e.UserID == "" || e.Model == "" || e.Feature == "" {
		return fmt.Errorf("%w: user_id, model and feature are required", ErrInvalidEntry)
	}
	if e.PromptTokens < 0 || e.CompletionTokens < 0 {
		return fmt.Errorf("%w: token counts must be non-negative", ErrInvalidEntry)
	}
	if e.TotalTokens == 0 {
		e.TotalTokens = e.PromptTokens + e.CompletionTokens
	} else if e.TotalTokens != e.PromptTokens+e.CompletionTokens {
		return fmt.Errorf("%w: total_tokens must equal prompt_tokens + completion_tokens", ErrInvalidEntry)
	}
	if e.EstimatedCost.IsNegative() {
		return fmt.Errorf("%w: estimated_cost must be non-negative", ErrInvalidEntry)
	}
	return nil
}
