package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

func activePoll() *model.Poll {
	return &model.Poll{
		ID:        "p1",
		Status:    model.StatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
		Options: []model.PollOption{
			{ID: "o1", PollID: "p1", OptionText: "Yes"},
			{ID: "o2", PollID: "p1", OptionText: "No"},
		},
	}
}

func TestCastVote(t *testing.T) {
	pollRepo := newFakePollRepo()
	pollRepo.polls["p1"] = activePoll()
	voteRepo := newFakeVoteRepo()
	svc := NewVoteService(voteRepo, pollRepo, zerolog.Nop())

	if err := svc.Cast(context.Background(), "p1", "o1", "user_1"); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if len(voteRepo.casts) != 1 || voteRepo.casts[0] != "p1/o1/user_1" {
		t.Errorf("casts = %v, want [p1/o1/user_1]", voteRepo.casts)
	}
}

func TestCastVotePollNotFound(t *testing.T) {
	svc := NewVoteService(newFakeVoteRepo(), newFakePollRepo(), zerolog.Nop())

	if err := svc.Cast(context.Background(), "missing", "o1", "user_1"); !errors.Is(err, ErrPollNotFound) {
		t.Fatalf("Cast() error = %v, want ErrPollNotFound", err)
	}
}

func TestCastVoteUnknownOption(t *testing.T) {
	pollRepo := newFakePollRepo()
	pollRepo.polls["p1"] = activePoll()
	svc := NewVoteService(newFakeVoteRepo(), pollRepo, zerolog.Nop())

	if err := svc.Cast(context.Background(), "p1", "o999", "user_1"); !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("Cast() error = %v, want ErrOptionNotFound", err)
	}
}

func TestCastVoteRejectsExpiredByTimestamp(t *testing.T) {
	// Stored status still says active, but the expiry has passed. The
	// ballot must be rejected before any sweep runs.
	poll := activePoll()
	poll.ExpiresAt = time.Now().Add(-time.Minute)
	pollRepo := newFakePollRepo()
	pollRepo.polls["p1"] = poll
	voteRepo := newFakeVoteRepo()
	svc := NewVoteService(voteRepo, pollRepo, zerolog.Nop())

	if err := svc.Cast(context.Background(), "p1", "o1", "user_1"); !errors.Is(err, ErrPollNotActive) {
		t.Fatalf("Cast() error = %v, want ErrPollNotActive", err)
	}
	if len(voteRepo.casts) != 0 {
		t.Errorf("casts = %v, want none", voteRepo.casts)
	}
}

func TestCastVoteRejectsScheduled(t *testing.T) {
	poll := activePoll()
	scheduledAt := time.Now().Add(time.Hour)
	poll.ScheduledAt = &scheduledAt
	poll.Status = model.StatusScheduled
	pollRepo := newFakePollRepo()
	pollRepo.polls["p1"] = poll
	svc := NewVoteService(newFakeVoteRepo(), pollRepo, zerolog.Nop())

	if err := svc.Cast(context.Background(), "p1", "o1", "user_1"); !errors.Is(err, ErrPollNotActive) {
		t.Fatalf("Cast() error = %v, want ErrPollNotActive", err)
	}
}

func TestHasVoted(t *testing.T) {
	pollRepo := newFakePollRepo()
	pollRepo.polls["p1"] = activePoll()
	voteRepo := newFakeVoteRepo()
	svc := NewVoteService(voteRepo, pollRepo, zerolog.Nop())

	voted, err := svc.HasVoted(context.Background(), "p1", "user_1")
	if err != nil {
		t.Fatalf("HasVoted() error = %v", err)
	}
	if voted {
		t.Error("HasVoted() = true before voting")
	}

	if err := svc.Cast(context.Background(), "p1", "o2", "user_1"); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	voted, err = svc.HasVoted(context.Background(), "p1", "user_1")
	if err != nil {
		t.Fatalf("HasVoted() error = %v", err)
	}
	if !voted {
		t.Error("HasVoted() = false after voting")
	}
}
