// Package postgres stores recap subscriptions in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minormending/slack-run-across-america/internal/recap"
)

const subscriptionColumns = `subscription_id::text, COALESCE(team_id, ''), COALESCE(team_name, ''), slack_channel, cutoff_policy, window_seconds, enabled, created_at`

// Repository provides Postgres-backed persistence for recap subscriptions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Connect opens a pool against url and verifies it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Create persists sub, assigning an id and creation time when unset.
func (r *Repository) Create(ctx context.Context, sub recap.Subscription) (recap.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if sub.Cutoff == "" {
		sub.Cutoff = recap.CutoffRolling
	}
	if err := sub.Job().Request.Validate(); err != nil {
		return recap.Subscription{}, err
	}

	const stmt = `INSERT INTO recap_subscriptions (subscription_id, team_id, team_name, slack_channel, cutoff_policy, window_seconds, enabled, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := r.pool.Exec(ctx, stmt,
		sub.ID,
		nullIfEmpty(sub.TeamID),
		nullIfEmpty(sub.TeamName),
		sub.Channel,
		string(sub.Cutoff),
		int64(sub.Window/time.Second),
		sub.Enabled,
		sub.CreatedAt,
	)
	if err != nil {
		return recap.Subscription{}, err
	}
	return sub, nil
}

// Get retrieves a subscription by id. It returns nil when none exists.
func (r *Repository) Get(ctx context.Context, id string) (*recap.Subscription, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM recap_subscriptions WHERE subscription_id=$1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListEnabled returns every enabled subscription ordered by creation time.
func (r *Repository) ListEnabled(ctx context.Context) ([]recap.Subscription, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+subscriptionColumns+` FROM recap_subscriptions WHERE enabled ORDER BY created_at, subscription_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]recap.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanSubscription(row pgx.Row) (recap.Subscription, error) {
	var (
		sub           recap.Subscription
		cutoff        string
		windowSeconds int64
	)
	if err := row.Scan(&sub.ID, &sub.TeamID, &sub.TeamName, &sub.Channel, &cutoff, &windowSeconds, &sub.Enabled, &sub.CreatedAt); err != nil {
		return recap.Subscription{}, err
	}
	sub.Cutoff = recap.CutoffPolicy(cutoff)
	sub.Window = time.Duration(windowSeconds) * time.Second
	return sub, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
