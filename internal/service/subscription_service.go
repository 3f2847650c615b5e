package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService defines business logic methods for subscriptions.
type SubscriptionService interface {
	GetSubscription(ctx context.Context, userID, companyID, experienceID string) (*model.UserSubscription, error)
	UpsertSubscription(ctx context.Context, sub *model.UserSubscription) error
	SetStatus(ctx context.Context, userID, companyID, experienceID string, status model.SubscriptionStatus, endsAt *time.Time) error
}

type subscriptionService struct {
	repo   repository.SubscriptionRepository
	logger zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(repo repository.SubscriptionRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		repo:   repo,
		logger: logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, userID, companyID, experienceID string) (*model.UserSubscription, error) {
	sub, err := s.repo.GetSubscription(ctx, userID, companyID, experienceID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription")
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) UpsertSubscription(ctx context.Context, sub *model.UserSubscription) error {
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("user_id", sub.UserID).Str("status", string(sub.Status)).Msg("Failed to upsert subscription")
		return err
	}
	return nil
}

func (s *subscriptionService) SetStatus(ctx context.Context, userID, companyID, experienceID string, status model.SubscriptionStatus, endsAt *time.Time) error {
	if err := s.repo.SetStatus(ctx, userID, companyID, experienceID, status, endsAt); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("status", string(status)).Msg("Failed to set subscription status")
		return err
	}
	return nil
}
