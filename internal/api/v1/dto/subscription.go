package dto

import "app/internal/model"

// UsageResponse is returned by GET /user/subscription.
type UsageResponse struct {
	SubscriptionStatus string `json:"subscription_status"`
	TotalPollsCreated  int    `json:"total_polls_created"`
	ActivePollsCount   int    `json:"active_polls_count"`
	CanCreateMore      bool   `json:"can_create_more"`
	MaxFreePolls       int    `json:"max_free_polls"`
}

// NewUsageResponse maps domain usage to its API representation.
func NewUsageResponse(u *model.PollUsage) UsageResponse {
	return UsageResponse{
		SubscriptionStatus: string(u.SubscriptionStatus),
		TotalPollsCreated:  u.TotalPollsCreated,
		ActivePollsCount:   u.ActivePollsCount,
		CanCreateMore:      u.CanCreateMore,
		MaxFreePolls:       u.MaxFreePolls,
	}
}
