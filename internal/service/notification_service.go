package service

import (
	"context"
	"strings"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/whop"

	"github.com/rs/zerolog"
)

// PushSender delivers a push notification. Satisfied by *whop.Client.
type PushSender interface {
	SendPushNotification(ctx context.Context, n whop.PushNotification) error
}

// NotificationService announces newly active polls to their experience
// audience. At most one notification is ever sent per poll: the persisted
// dedupe row is claimed before dispatch, so concurrent sweepers cannot both
// send.
type NotificationService interface {
	// NotifyPollLaunched sends the launch push for a poll that just became
	// active, if the poll requested one and none was sent before.
	NotifyPollLaunched(ctx context.Context, poll model.Poll) error
}

type notificationService struct {
	repo           repository.NotificationRepository
	sender         PushSender
	excludeCreator bool
	logger         zerolog.Logger
}

// NewNotificationService creates a NotificationService with a scoped logger.
func NewNotificationService(repo repository.NotificationRepository, sender PushSender, excludeCreator bool, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:           repo,
		sender:         sender,
		excludeCreator: excludeCreator,
		logger:         logger.With().Str("service", "NotificationService").Logger(),
	}
}

func (s *notificationService) NotifyPollLaunched(ctx context.Context, poll model.Poll) error {
	if !poll.SendNotification {
		return nil
	}

	// Experience ids start with exp_; a biz_ value here means a company id
	// leaked into the experience column and the push would go nowhere useful.
	if !strings.HasPrefix(poll.ExperienceID, "exp_") {
		s.logger.Warn().Str("poll_id", poll.ID).Str("experience_id", poll.ExperienceID).Msg("Refusing to notify: not an experience id")
		return nil
	}

	claimed, err := s.repo.TryMarkSent(ctx, poll.ID, poll.ExperienceID, poll.CreatorUserID)
	if err != nil {
		return err
	}
	if !claimed {
		s.logger.Debug().Str("poll_id", poll.ID).Msg("Notification already sent, skipping")
		return nil
	}

	content := poll.Question
	if len(content) > 100 {
		content = content[:100] + "..."
	}
	push := whop.PushNotification{
		Title:        "New poll launched!",
		Content:      content,
		ExperienceID: poll.ExperienceID,
		RestPath:     "/polls/" + poll.ID,
		IsMention:    true,
	}
	if !s.excludeCreator {
		push.SenderUserID = poll.CreatorUserID
	}

	if err := s.sender.SendPushNotification(ctx, push); err != nil {
		// Best effort: the dedupe row stays claimed, so the poll is not
		// announced twice even after a failed send.
		s.logger.Error().Err(err).Str("poll_id", poll.ID).Msg("Push notification failed")
		return err
	}
	s.logger.Info().Str("poll_id", poll.ID).Str("experience_id", poll.ExperienceID).Msg("Poll launch notification sent")
	return nil
}
