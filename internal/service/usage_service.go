package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// UsageService computes per-user poll usage and the freemium creation
// decision. Active counts are always recomputed from the polls table; there
// is no separately maintained counter to drift.
type UsageService interface {
	GetUsage(ctx context.Context, userID, companyID, experienceID string) (*model.PollUsage, error)
	CanCreate(ctx context.Context, userID, companyID, experienceID string) (bool, error)
	// ActiveLimit returns the maximum number of concurrently active polls
	// the user may have, or 0 for unlimited.
	ActiveLimit(ctx context.Context, userID, companyID, experienceID string) (int, error)
	// Initialize creates a free-tier subscription row on first contact.
	Initialize(ctx context.Context, userID, companyID, experienceID string) error
}

type usageService struct {
	polls        repository.PollRepository
	subs         repository.SubscriptionRepository
	maxFreePolls int
	logger       zerolog.Logger
}

// NewUsageService creates a new UsageService with a scoped logger.
func NewUsageService(polls repository.PollRepository, subs repository.SubscriptionRepository, maxFreePolls int, logger zerolog.Logger) UsageService {
	return &usageService{
		polls:        polls,
		subs:         subs,
		maxFreePolls: maxFreePolls,
		logger:       logger.With().Str("service", "UsageService").Logger(),
	}
}

func (s *usageService) GetUsage(ctx context.Context, userID, companyID, experienceID string) (*model.PollUsage, error) {
	status, err := s.tier(ctx, userID, companyID, experienceID)
	if err != nil {
		return nil, err
	}

	total, err := s.polls.CountCreatedByCreator(ctx, userID, companyID, experienceID)
	if err != nil {
		return nil, err
	}
	active, err := s.polls.CountActiveByCreator(ctx, userID, companyID, experienceID, time.Now())
	if err != nil {
		return nil, err
	}

	return &model.PollUsage{
		SubscriptionStatus: status,
		TotalPollsCreated:  total,
		ActivePollsCount:   active,
		CanCreateMore:      status == model.TierPro || active < s.maxFreePolls,
		MaxFreePolls:       s.maxFreePolls,
	}, nil
}

func (s *usageService) CanCreate(ctx context.Context, userID, companyID, experienceID string) (bool, error) {
	usage, err := s.GetUsage(ctx, userID, companyID, experienceID)
	if err != nil {
		return false, err
	}
	return usage.CanCreateMore, nil
}

func (s *usageService) ActiveLimit(ctx context.Context, userID, companyID, experienceID string) (int, error) {
	status, err := s.tier(ctx, userID, companyID, experienceID)
	if err != nil {
		return 0, err
	}
	if status == model.TierPro {
		return 0, nil
	}
	return s.maxFreePolls, nil
}

func (s *usageService) Initialize(ctx context.Context, userID, companyID, experienceID string) error {
	if err := s.subs.InitializeFree(ctx, userID, companyID, experienceID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to initialize subscription")
		return err
	}
	return nil
}

// tier resolves the user's subscription tier; a missing row means free.
func (s *usageService) tier(ctx context.Context, userID, companyID, experienceID string) (model.SubscriptionStatus, error) {
	sub, err := s.subs.GetSubscription(ctx, userID, companyID, experienceID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return model.TierFree, nil
	}
	return sub.Status, nil
}
