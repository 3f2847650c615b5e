package dto

import (
	"time"

	"app/internal/model"
)

// PollOptionInput is one option text in a poll creation request.
type PollOptionInput struct {
	OptionText string `json:"option_text" validate:"required,min=1,max=100"`
}

// CreatePollRequest is the body of POST /polls.
type CreatePollRequest struct {
	Question         string            `json:"question" validate:"required,min=1,max=500"`
	Options          []PollOptionInput `json:"options" validate:"required,min=2,max=10,dive"`
	ExpiresAt        time.Time         `json:"expires_at" validate:"required"`
	ScheduledAt      *time.Time        `json:"scheduled_at,omitempty"`
	IsAnonymous      bool              `json:"is_anonymous"`
	SendNotification *bool             `json:"send_notification,omitempty"`
	CompanyID        string            `json:"company_id" validate:"required"`
	ExperienceID     string            `json:"experience_id" validate:"required"`
}

// PollOptionResponse is returned in API responses for poll options.
type PollOptionResponse struct {
	ID         string `json:"id"`
	PollID     string `json:"poll_id"`
	OptionText string `json:"option_text"`
	VoteCount  int    `json:"vote_count"`
	Percentage int    `json:"percentage"`
}

// PollResponse is returned in API responses for polls.
type PollResponse struct {
	ID               string               `json:"id"`
	Question         string               `json:"question"`
	CompanyID        string               `json:"company_id"`
	ExperienceID     string               `json:"experience_id"`
	CreatorUserID    string               `json:"creator_user_id"`
	ExpiresAt        time.Time            `json:"expires_at"`
	ScheduledAt      *time.Time           `json:"scheduled_at,omitempty"`
	IsAnonymous      bool                 `json:"is_anonymous"`
	SendNotification bool                 `json:"send_notification"`
	Status           string               `json:"status"`
	CreatedAt        time.Time            `json:"created_at"`
	Options          []PollOptionResponse `json:"options"`
	TotalVotes       int                  `json:"total_votes"`
	UserVoted        bool                 `json:"user_voted"`
	UserVoteOptionID *string              `json:"user_vote_option_id,omitempty"`
}

// NewPollResponse maps a domain poll to its API representation.
func NewPollResponse(p *model.Poll) PollResponse {
	resp := PollResponse{
		ID:               p.ID,
		Question:         p.Question,
		CompanyID:        p.CompanyID,
		ExperienceID:     p.ExperienceID,
		CreatorUserID:    p.CreatorUserID,
		ExpiresAt:        p.ExpiresAt,
		ScheduledAt:      p.ScheduledAt,
		IsAnonymous:      p.IsAnonymous,
		SendNotification: p.SendNotification,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt,
		Options:          make([]PollOptionResponse, 0, len(p.Options)),
		TotalVotes:       p.TotalVotes,
		UserVoted:        p.UserVoted,
		UserVoteOptionID: p.UserVoteOptionID,
	}
	for _, opt := range p.Options {
		resp.Options = append(resp.Options, PollOptionResponse{
			ID:         opt.ID,
			PollID:     opt.PollID,
			OptionText: opt.OptionText,
			VoteCount:  opt.VoteCount,
			Percentage: opt.Percentage,
		})
	}
	return resp
}
