// Package costretry drains the cost-ledger retry queue. Entries land here
// when the synchronous insert failed during request handling; the
// orchestrator replays them with backoff so best-effort recording still
// converges on a complete ledger.
package costretry

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/pgmq"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Run starts the cost-retry orchestrator loop. alerts may be nil in local
// development; dead-lettered entries are then only logged.
func Run(ctx context.Context, logger zerolog.Logger, cfg *config.Config, client *pgmq.Client, costRepo repository.CostRepository, alerts pubsub.Publisher) error {
	queue := cfg.CostRetryQueueName
	logger.Info().Str("queue", queue).Msg("Starting cost-retry orchestrator")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down cost-retry orchestrator")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, queue, cfg.CostRetryPollTimeoutSec, cfg.CostRetryPollMaxMsg)
		if err != nil {
			logger.Error().Err(err).Msg("Error reading cost-retry queue")
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			processMessage(ctx, logger, cfg, client, costRepo, alerts, msg)
		}
	}
}

func processMessage(ctx context.Context, logger zerolog.Logger, cfg *config.Config, client *pgmq.Client, costRepo repository.CostRepository, alerts pubsub.Publisher, msg *pgmq.Message) {
	var entry model.CostEntry
	if err := json.Unmarshal(msg.Data, &entry); err != nil {
		logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Failed to unmarshal cost entry payload; deleting message")
		if err := client.Delete(ctx, cfg.CostRetryQueueName, []int64{msg.ID}); err != nil {
			logger.Error().Err(err).Msg("Error deleting malformed cost-retry message")
		}
		return
	}

	// Replay the insert with exponential backoff. The entry keeps its
	// original ID and timestamp, so a duplicate replay hits the primary key
	// instead of double-counting.
	backoff := time.Duration(cfg.CostRetryBackoffInitialSec) * time.Second
	var insertErr error
	for attempt := 1; attempt <= cfg.CostRetryMaxRetries; attempt++ {
		insertErr = costRepo.InsertEntry(ctx, &entry)
		if insertErr == nil {
			logger.Info().Str("entry_id", entry.ID).Str("user_id", entry.UserID).Int("attempt", attempt).Msg("Replayed cost entry")
			break
		}
		logger.Error().Err(insertErr).Str("entry_id", entry.ID).Int("attempt", attempt).Msg("Cost entry replay failed, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if max := time.Duration(cfg.CostRetryBackoffMaxSec) * time.Second; backoff > max {
			backoff = max
		}
	}

	if insertErr != nil {
		deadLetter(ctx, logger, cfg, client, alerts, msg.Data, &entry)
	}

	if err := client.Delete(ctx, cfg.CostRetryQueueName, []int64{msg.ID}); err != nil {
		logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Error deleting cost-retry message")
	}
}

// deadLetter parks an unrecoverable entry on the DLQ and raises an ops
// alert; the ledger write failure must surface somewhere, never vanish.
func deadLetter(ctx context.Context, logger zerolog.Logger, cfg *config.Config, client *pgmq.Client, alerts pubsub.Publisher, payload []byte, entry *model.CostEntry) {
	dlq := cfg.CostRetryDeadLetterQueueName
	if err := client.Send(ctx, dlq, payload); err != nil {
		logger.Error().Err(err).Str("dlq", dlq).RawJSON("entry", payload).Msg("Failed to send cost entry to dead-letter queue")
	}

	if alerts == nil {
		logger.Warn().Str("entry_id", entry.ID).Msg("Cost entry dead-lettered; alert publisher not configured")
		return
	}
	alert, _ := json.Marshal(map[string]string{
		"kind":     "cost_entry_dead_lettered",
		"entry_id": entry.ID,
		"user_id":  entry.UserID,
		"model":    entry.Model,
	})
	if _, err := alerts.Publish(ctx, cfg.AlertTopic, alert); err != nil {
		logger.Error().Err(err).Str("topic", cfg.AlertTopic).Msg("Failed to publish dead-letter alert")
	}
}
