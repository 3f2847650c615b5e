package dto

import (
	"time"

	"app/internal/model"
)

// SweptPoll summarizes a poll transitioned by a sweep operation.
type SweptPoll struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Status      string     `json:"status"`
}

// SweepResponse is returned by the activate-scheduled and
// update-expired maintenance endpoints.
type SweepResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Count   int         `json:"count"`
	Polls   []SweptPoll `json:"polls"`
}

// NewSweepResponse builds a sweep summary from the transitioned polls.
func NewSweepResponse(message string, polls []model.Poll) SweepResponse {
	resp := SweepResponse{
		Success: true,
		Message: message,
		Count:   len(polls),
		Polls:   make([]SweptPoll, 0, len(polls)),
	}
	for _, p := range polls {
		resp.Polls = append(resp.Polls, SweptPoll{
			ID:          p.ID,
			Question:    p.Question,
			ScheduledAt: p.ScheduledAt,
			ExpiresAt:   p.ExpiresAt,
			Status:      string(p.Status),
		})
	}
	return resp
}
