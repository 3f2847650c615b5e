package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository is the persisted dedupe set for poll launch
// notifications. There is deliberately no in-process cache: the insert
// claiming the row is the only gate, so it holds across restarts and
// multiple instances.
type NotificationRepository interface {
	// TryMarkSent claims the notification slot for a poll. Returns true if
	// this call claimed it, false if a notification was already recorded.
	TryMarkSent(ctx context.Context, pollID, experienceID, creatorUserID string) (bool, error)
}

type notificationRepo struct {
	pool *pgxpool.Pool
}

// NewNotificationRepo creates a new NotificationRepository.
func NewNotificationRepo(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepo{pool: pool}
}

func (r *notificationRepo) TryMarkSent(ctx context.Context, pollID, experienceID, creatorUserID string) (bool, error) {
	const q = `
		INSERT INTO poll_notifications_sent (poll_id, experience_id, creator_user_id, sent_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (poll_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, q, pollID, experienceID, creatorUserID)
	if err != nil {
		return false, fmt.Errorf("marking notification sent for poll %s: %w", pollID, err)
	}
	return tag.RowsAffected() == 1, nil
}
