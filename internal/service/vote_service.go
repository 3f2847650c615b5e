package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// VoteService is the vote ledger: at most one ballot per (poll, user), with
// re-voting moving the ballot rather than adding another vote.
type VoteService interface {
	// Cast records or changes the user's vote. The poll must be active by
	// its timestamps; a poll past expiry rejects the vote even if a sweep
	// has not yet flipped its stored status.
	Cast(ctx context.Context, pollID, optionID, userID string) error
	HasVoted(ctx context.Context, pollID, userID string) (bool, error)
}

type voteService struct {
	votes  repository.VoteRepository
	polls  repository.PollRepository
	logger zerolog.Logger
}

// NewVoteService creates a new VoteService with a scoped logger.
func NewVoteService(votes repository.VoteRepository, polls repository.PollRepository, logger zerolog.Logger) VoteService {
	return &voteService{
		votes:  votes,
		polls:  polls,
		logger: logger.With().Str("service", "VoteService").Logger(),
	}
}

func (s *voteService) Cast(ctx context.Context, pollID, optionID, userID string) error {
	poll, err := s.polls.GetPollByID(ctx, pollID)
	if err != nil {
		return err
	}
	if poll == nil {
		return ErrPollNotFound
	}

	// Derive the state from timestamps rather than trusting the stored
	// status, so a poll the sweep has not reached yet still rejects votes.
	if poll.StatusNow(time.Now()) != model.StatusActive {
		return ErrPollNotActive
	}

	optionValid := false
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			optionValid = true
			break
		}
	}
	if !optionValid {
		return ErrOptionNotFound
	}

	if err := s.votes.CastVote(ctx, pollID, optionID, userID); err != nil {
		s.logger.Error().Err(err).Str("poll_id", pollID).Str("user_id", userID).Msg("Failed to cast vote")
		return err
	}
	s.logger.Info().Str("poll_id", pollID).Str("option_id", optionID).Str("user_id", userID).Msg("Vote recorded")
	return nil
}

func (s *voteService) HasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	return s.votes.HasVoted(ctx, pollID, userID)
}
