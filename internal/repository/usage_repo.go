package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrUserNotFound is returned when no usage row exists for the user.
	ErrUserNotFound = errors.New("user_not_found")
	// ErrUnknownCounter is returned for a counter name outside the fixed set.
	ErrUnknownCounter = errors.New("unknown_counter")
)

// counterColumns maps counters to their columns. Counter names are resolved
// through this map only, never interpolated from request input.
var counterColumns = map[model.Counter]string{
	model.CounterChatUsedToday:  "chat_used_today",
	model.CounterVideosThisWeek: "videos_generated_this_week",
	model.CounterImagesThisWeek: "images_generated_this_week",
}

// UsageRepository is the store for per-user rolling usage counters.
type UsageRepository interface {
	// GetUsage returns the user's current counters and plan passthrough.
	GetUsage(ctx context.Context, userID string) (*model.UserUsage, error)
	// IncrementCounter atomically adds amount to the named counter. The
	// addition happens in a single UPDATE so concurrent increments never
	// collapse into one.
	IncrementCounter(ctx context.Context, userID string, counter model.Counter, amount int64) error
	// AddVoiceMinutes atomically adds fractional minutes to the weekly
	// voice counter.
	AddVoiceMinutes(ctx context.Context, userID string, minutes decimal.Decimal) error
	// ResetDaily zeroes the daily counter for every user and returns the
	// number of rows swept. It carries no date guard; the caller's schedule
	// owns the boundary decision.
	ResetDaily(ctx context.Context) (int64, error)
	// ResetWeekly zeroes all three weekly counters in one statement.
	ResetWeekly(ctx context.Context) (int64, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) GetUsage(ctx context.Context, userID string) (*model.UserUsage, error) {
	const q = `
        SELECT user_id, plan, plan_expires_at,
               chat_used_today, videos_generated_this_week,
               voice_minutes_this_week, images_generated_this_week,
               created_at, updated_at
        FROM user_usage
        WHERE user_id = $1
    `
	var u model.UserUsage
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&u.UserID,
		&u.Plan,
		&u.PlanExpiresAt,
		&u.ChatUsedToday,
		&u.VideosGeneratedThisWeek,
		&u.VoiceMinutesThisWeek,
		&u.ImagesGeneratedThisWeek,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetch usage for user %s: %w", userID, err)
	}
	return &u, nil
}

func (r *usageRepo) IncrementCounter(ctx context.Context, userID string, counter model.Counter, amount int64) error {
	column, ok := counterColumns[counter]
	if !ok {
		return ErrUnknownCounter
	}
	q := fmt.Sprintf(`UPDATE user_usage SET %s = %s + $2, updated_at = NOW() WHERE user_id = $1`, column, column)
	tag, err := r.pool.Exec(ctx, q, userID, amount)
	if err != nil {
		return fmt.Errorf("incrementing %s for user %s: %w", counter, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *usageRepo) AddVoiceMinutes(ctx context.Context, userID string, minutes decimal.Decimal) error {
	const q = `
        UPDATE user_usage
        SET voice_minutes_this_week = voice_minutes_this_week + $2,
            updated_at = NOW()
        WHERE user_id = $1
    `
	tag, err := r.pool.Exec(ctx, q, userID, minutes)
	if err != nil {
		return fmt.Errorf("adding voice minutes for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *usageRepo) ResetDaily(ctx context.Context) (int64, error) {
	// Unconditional sweep: rows already at zero still count as reset, so a
	// second run inside the same boundary reports the same well-defined count.
	const q = `UPDATE user_usage SET chat_used_today = 0, updated_at = NOW()`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("resetting daily counters: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *usageRepo) ResetWeekly(ctx context.Context) (int64, error) {
	// All three weekly counters are zeroed in one statement so a concurrent
	// read observes the sweep either fully applied or not at all for a row.
	const q = `
        UPDATE user_usage
        SET videos_generated_this_week = 0,
            voice_minutes_this_week = 0,
            images_generated_this_week = 0,
            updated_at = NOW()
    `
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("resetting weekly counters: %w", err)
	}
	return tag.RowsAffected(), nil
}
