package model

import "time"

// SubscriptionStatus is a user's billing tier within a tenant scope.
type SubscriptionStatus string

const (
	TierFree      SubscriptionStatus = "free"
	TierPro       SubscriptionStatus = "pro"
	TierCancelled SubscriptionStatus = "cancelled"
)

// UserSubscription is the per (user, company, experience) billing record,
// kept up to date by webhook ingestion.
type UserSubscription struct {
	ID           string             `db:"id" json:"id"`
	UserID       string             `db:"user_id" json:"user_id"`
	CompanyID    string             `db:"company_id" json:"company_id"`
	ExperienceID string             `db:"experience_id" json:"experience_id"`
	Status       SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	PlanID       *string            `db:"plan_id" json:"plan_id,omitempty"`
	AccessPassID *string            `db:"access_pass_id" json:"access_pass_id,omitempty"`
	StartedAt    *time.Time         `db:"subscription_started_at" json:"subscription_started_at,omitempty"`
	EndsAt       *time.Time         `db:"subscription_ends_at" json:"subscription_ends_at,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// PollUsage summarizes a user's poll creation against their tier limits.
// ActivePollsCount is recomputed from the polls table, never read from a
// maintained counter.
type PollUsage struct {
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	TotalPollsCreated  int                `json:"total_polls_created"`
	ActivePollsCount   int                `json:"active_polls_count"`
	CanCreateMore      bool               `json:"can_create_more"`
	MaxFreePolls       int                `json:"max_free_polls"`
}
