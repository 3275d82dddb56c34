package repository

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CostRepository is the append-only store of LLM invocation cost records.
// The interface deliberately has no update or delete methods.
type CostRepository interface {
	// InsertEntry appends one ledger entry. A missing ID is generated and a
	// missing CreatedAt defaults to the database clock; both are written
	// back to the entry.
	InsertEntry(ctx context.Context, e *model.CostEntry) error
	// AggregateUserCosts folds the user's entries over [start, end).
	AggregateUserCosts(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error)
	// AggregateAllUsersCosts folds every user's entries over [start, end)
	// and adds a per-user breakdown. Authorization is the caller's job.
	AggregateAllUsersCosts(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error)
}

type costRepo struct {
	pool *pgxpool.Pool
}

// NewCostRepo creates a new CostRepository.
func NewCostRepo(pool *pgxpool.Pool) CostRepository {
	return &costRepo{pool: pool}
}

func (r *costRepo) InsertEntry(ctx context.Context, e *model.CostEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	// Replays from the retry queue carry their original timestamp; fresh
	// inserts take the database clock.
	var createdAt *time.Time
	if !e.CreatedAt.IsZero() {
		createdAt = &e.CreatedAt
	}
	const q = `
        INSERT INTO cost_entries
            (id, user_id, model, prompt_tokens, completion_tokens, total_tokens, estimated_cost, feature, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
        RETURNING created_at
    `
	err := r.pool.QueryRow(ctx, q,
		e.ID, e.UserID, e.Model,
		e.PromptTokens, e.CompletionTokens, e.TotalTokens,
		e.EstimatedCost, e.Feature, createdAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting cost entry for user %s: %w", e.UserID, err)
	}
	return nil
}

func (r *costRepo) AggregateUserCosts(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error) {
	summary, err := r.aggregate(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating costs for user %s: %w", userID, err)
	}
	return summary, nil
}

func (r *costRepo) AggregateAllUsersCosts(ctx context.Context, start, end time.Time) (*model.AllUsersCostSummary, error) {
	summary, err := r.aggregate(ctx, "", start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating costs for all users: %w", err)
	}
	byUser, err := r.groupCosts(ctx, "user_id", "", start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating per-user costs: %w", err)
	}
	return &model.AllUsersCostSummary{CostSummary: *summary, ByUser: byUser}, nil
}

// aggregate computes the totals plus model and feature breakdowns. An empty
// userID folds over every user.
func (r *costRepo) aggregate(ctx context.Context, userID string, start, end time.Time) (*model.CostSummary, error) {
	const q = `
        SELECT COALESCE(SUM(estimated_cost), 0),
               COALESCE(SUM(total_tokens), 0),
               COUNT(*)
        FROM cost_entries
        WHERE ($1 = '' OR user_id = $1)
          AND created_at >= $2
          AND created_at < $3
    `
	s := &model.CostSummary{}
	if err := r.pool.QueryRow(ctx, q, userID, start, end).Scan(&s.TotalCost, &s.TotalTokens, &s.EntryCount); err != nil {
		return nil, err
	}

	var err error
	if s.ByModel, err = r.groupCosts(ctx, "model", userID, start, end); err != nil {
		return nil, err
	}
	if s.ByFeature, err = r.groupCosts(ctx, "feature", userID, start, end); err != nil {
		return nil, err
	}
	return s, nil
}

// groupCosts sums estimated_cost grouped by the given column. The column is
// one of a fixed set of literals supplied by this package, never user input.
func (r *costRepo) groupCosts(ctx context.Context, column, userID string, start, end time.Time) (map[string]decimal.Decimal, error) {
	q := fmt.Sprintf(`
        SELECT %s, SUM(estimated_cost)
        FROM cost_entries
        WHERE ($1 = '' OR user_id = $1)
          AND created_at >= $2
          AND created_at < $3
        GROUP BY %s
        ORDER BY %s
    `, column, column, column)
	rows, err := r.pool.Query(ctx, q, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make(map[string]decimal.Decimal)
	for rows.Next() {
		var key string
		var total decimal.Decimal
		if err := rows.Scan(&key, &total); err != nil {
			return nil, err
		}
		groups[key] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
