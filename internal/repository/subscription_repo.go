package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for accessing subscription data.
// Rows are scoped per (user, company, experience) and written by webhook
// ingestion; the quota tracker only reads the resulting tier.
type SubscriptionRepository interface {
	// GetSubscription returns the subscription row, or nil if none exists.
	GetSubscription(ctx context.Context, userID, companyID, experienceID string) (*model.UserSubscription, error)
	// InitializeFree creates a free-tier row if none exists yet.
	InitializeFree(ctx context.Context, userID, companyID, experienceID string) error
	// UpsertSubscription creates or replaces the subscription with the given
	// tier, plan and period.
	UpsertSubscription(ctx context.Context, sub *model.UserSubscription) error
	// SetStatus updates only the tier (and period end) of an existing row,
	// creating a row with that tier if none exists.
	SetStatus(ctx context.Context, userID, companyID, experienceID string, status model.SubscriptionStatus, endsAt *time.Time) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID, companyID, experienceID string) (*model.UserSubscription, error) {
	const q = `
		SELECT id, user_id, company_id, experience_id, subscription_status,
		       plan_id, access_pass_id, subscription_started_at, subscription_ends_at,
		       created_at, updated_at
		FROM user_subscriptions
		WHERE user_id = $1 AND company_id = $2 AND experience_id = $3
	`
	var us model.UserSubscription
	err := r.pool.QueryRow(ctx, q, userID, companyID, experienceID).Scan(
		&us.ID,
		&us.UserID,
		&us.CompanyID,
		&us.ExperienceID,
		&us.Status,
		&us.PlanID,
		&us.AccessPassID,
		&us.StartedAt,
		&us.EndsAt,
		&us.CreatedAt,
		&us.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching subscription for user %s: %w", userID, err)
	}
	return &us, nil
}

func (r *subscriptionRepo) InitializeFree(ctx context.Context, userID, companyID, experienceID string) error {
	const q = `
		INSERT INTO user_subscriptions (user_id, company_id, experience_id, subscription_status, created_at, updated_at)
		VALUES ($1, $2, $3, 'free', NOW(), NOW())
		ON CONFLICT (user_id, company_id, experience_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, q, userID, companyID, experienceID); err != nil {
		return fmt.Errorf("initializing subscription for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) UpsertSubscription(ctx context.Context, sub *model.UserSubscription) error {
	const q = `
		INSERT INTO user_subscriptions (user_id, company_id, experience_id, subscription_status,
		                                plan_id, access_pass_id, subscription_started_at, subscription_ends_at,
		                                created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (user_id, company_id, experience_id) DO UPDATE
		SET subscription_status = EXCLUDED.subscription_status,
			plan_id = EXCLUDED.plan_id,
			access_pass_id = EXCLUDED.access_pass_id,
			subscription_started_at = EXCLUDED.subscription_started_at,
			subscription_ends_at = EXCLUDED.subscription_ends_at,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, q,
		sub.UserID, sub.CompanyID, sub.ExperienceID, sub.Status,
		sub.PlanID, sub.AccessPassID, sub.StartedAt, sub.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("upserting subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}

func (r *subscriptionRepo) SetStatus(ctx context.Context, userID, companyID, experienceID string, status model.SubscriptionStatus, endsAt *time.Time) error {
	const q = `
		INSERT INTO user_subscriptions (user_id, company_id, experience_id, subscription_status,
		                                subscription_ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, company_id, experience_id) DO UPDATE
		SET subscription_status = EXCLUDED.subscription_status,
			subscription_ends_at = EXCLUDED.subscription_ends_at,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, q, userID, companyID, experienceID, status, endsAt); err != nil {
		return fmt.Errorf("setting subscription status for user %s: %w", userID, err)
	}
	return nil
}
