package service

import (
	"context"
	"errors"
	"time"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/whop"

	"github.com/rs/zerolog"
)

// CreatePollInput carries a validated poll creation request into the service.
type CreatePollInput struct {
	Question         string
	Options          []string
	CompanyID        string
	ExperienceID     string
	CreatorUserID    string
	ExpiresAt        time.Time
	ScheduledAt      *time.Time
	IsAnonymous      bool
	SendNotification bool
}

// AccessChecker resolves a user's access level to a company. Satisfied by
// *whop.Client.
type AccessChecker interface {
	CheckCompanyAccess(ctx context.Context, userID, companyID string) (*whop.AccessResult, error)
}

// PollService manages the poll lifecycle: creation with quota enforcement,
// deletion, listing and the scheduled/active/expired sweeps.
type PollService interface {
	Create(ctx context.Context, in CreatePollInput) (*model.Poll, error)
	// Delete removes a poll. Only the creator or a company admin may delete.
	Delete(ctx context.Context, pollID, requesterID string) error
	ListByExperience(ctx context.Context, experienceID, userID string) ([]model.Poll, error)
	ListByCompany(ctx context.Context, companyID, userID string) ([]model.Poll, error)
	// ActivateDue promotes due scheduled polls and returns the ones that
	// changed in this call.
	ActivateDue(ctx context.Context, now time.Time) ([]model.Poll, error)
	// ExpireDue demotes past-expiry active polls and returns the ones that
	// changed in this call.
	ExpireDue(ctx context.Context, now time.Time) ([]model.Poll, error)
}

type pollService struct {
	repo     repository.PollRepository
	usageSvc UsageService
	access   AccessChecker
	logger   zerolog.Logger
}

// NewPollService creates a new PollService with a scoped logger.
func NewPollService(repo repository.PollRepository, usageSvc UsageService, access AccessChecker, logger zerolog.Logger) PollService {
	return &pollService{
		repo:     repo,
		usageSvc: usageSvc,
		access:   access,
		logger:   logger.With().Str("service", "PollService").Logger(),
	}
}

func (s *pollService) Create(ctx context.Context, in CreatePollInput) (*model.Poll, error) {
	now := time.Now()
	if !in.ExpiresAt.After(now) {
		return nil, ErrExpiryInPast
	}

	if err := s.usageSvc.Initialize(ctx, in.CreatorUserID, in.CompanyID, in.ExperienceID); err != nil {
		return nil, err
	}
	limit, err := s.usageSvc.ActiveLimit(ctx, in.CreatorUserID, in.CompanyID, in.ExperienceID)
	if err != nil {
		return nil, err
	}

	poll := &model.Poll{
		Question:         in.Question,
		CompanyID:        in.CompanyID,
		ExperienceID:     in.ExperienceID,
		CreatorUserID:    in.CreatorUserID,
		ExpiresAt:        in.ExpiresAt,
		ScheduledAt:      in.ScheduledAt,
		IsAnonymous:      in.IsAnonymous,
		SendNotification: in.SendNotification,
		Status:           model.StatusAt(in.ScheduledAt, in.ExpiresAt, now),
	}

	if err := s.repo.CreatePollWithOptions(ctx, poll, in.Options, limit); err != nil {
		if errors.Is(err, repository.ErrPollLimitReached) {
			return nil, ErrQuotaExceeded
		}
		s.logger.Error().Err(err).Str("user_id", in.CreatorUserID).Msg("Failed to create poll")
		return nil, err
	}

	s.logger.Info().
		Str("poll_id", poll.ID).
		Str("user_id", in.CreatorUserID).
		Str("status", string(poll.Status)).
		Bool("send_notification", poll.SendNotification).
		Msg("Poll created")
	return poll, nil
}

func (s *pollService) Delete(ctx context.Context, pollID, requesterID string) error {
	poll, err := s.repo.GetPollByID(ctx, pollID)
	if err != nil {
		return err
	}
	if poll == nil {
		return ErrPollNotFound
	}

	if poll.CreatorUserID != requesterID {
		result, err := s.access.CheckCompanyAccess(ctx, requesterID, poll.CompanyID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", requesterID).Str("poll_id", pollID).Msg("Access check failed during delete")
			return err
		}
		if !result.HasAccess || result.AccessLevel != whop.AccessAdmin {
			return ErrForbidden
		}
	}

	if err := s.repo.DeletePoll(ctx, pollID); err != nil {
		s.logger.Error().Err(err).Str("poll_id", pollID).Msg("Failed to delete poll")
		return err
	}
	s.logger.Info().Str("poll_id", pollID).Str("user_id", requesterID).Msg("Poll deleted")
	return nil
}

func (s *pollService) ListByExperience(ctx context.Context, experienceID, userID string) ([]model.Poll, error) {
	return s.repo.ListByExperience(ctx, experienceID, userID)
}

func (s *pollService) ListByCompany(ctx context.Context, companyID, userID string) ([]model.Poll, error) {
	return s.repo.ListByCompany(ctx, companyID, userID)
}

func (s *pollService) ActivateDue(ctx context.Context, now time.Time) ([]model.Poll, error) {
	activated, err := s.repo.ActivateDue(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to activate scheduled polls")
		return nil, err
	}
	if len(activated) > 0 {
		s.logger.Info().Int("count", len(activated)).Msg("Activated scheduled polls")
	}
	return activated, nil
}

func (s *pollService) ExpireDue(ctx context.Context, now time.Time) ([]model.Poll, error) {
	expired, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to expire polls")
		return nil, err
	}
	if len(expired) > 0 {
		s.logger.Info().Int("count", len(expired)).Msg("Expired polls")
	}
	return expired, nil
}
