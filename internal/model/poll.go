package model

import "time"

// PollStatus is the lifecycle state of a poll. Transitions run strictly
// forward: scheduled -> active -> expired. A poll created without a launch
// time starts directly in StatusActive.
type PollStatus string

const (
	StatusScheduled PollStatus = "scheduled"
	StatusActive    PollStatus = "active"
	StatusExpired   PollStatus = "expired"
)

// Poll represents a poll owned by a company/experience scope.
type Poll struct {
	ID               string       `db:"id" json:"id"`
	Question         string       `db:"question" json:"question"`
	CompanyID        string       `db:"company_id" json:"company_id"`
	ExperienceID     string       `db:"experience_id" json:"experience_id"`
	CreatorUserID    string       `db:"creator_user_id" json:"creator_user_id"`
	ExpiresAt        time.Time    `db:"expires_at" json:"expires_at"`
	ScheduledAt      *time.Time   `db:"scheduled_at" json:"scheduled_at,omitempty"`
	IsAnonymous      bool         `db:"is_anonymous" json:"is_anonymous"`
	SendNotification bool         `db:"send_notification" json:"send_notification"`
	Status           PollStatus   `db:"status" json:"status"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	Options          []PollOption `json:"options"`
	TotalVotes       int          `json:"total_votes"`
	UserVoted        bool         `json:"user_voted"`
	UserVoteOptionID *string      `json:"user_vote_option_id,omitempty"`
}

// PollOption is one choice on a poll. Options are fixed at creation time;
// VoteCount is maintained by atomic increments and equals the number of
// ballots pointing at this option.
type PollOption struct {
	ID         string    `db:"id" json:"id"`
	PollID     string    `db:"poll_id" json:"poll_id"`
	OptionText string    `db:"option_text" json:"option_text"`
	VoteCount  int       `db:"vote_count" json:"vote_count"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
	Percentage int       `json:"percentage"`
}

// StatusAt derives the lifecycle state from the poll's timestamps. The stored
// status column is only a cached projection of this; anything with a
// correctness requirement (voting, quota) must use the derived value.
func StatusAt(scheduledAt *time.Time, expiresAt, now time.Time) PollStatus {
	if !now.Before(expiresAt) {
		return StatusExpired
	}
	if scheduledAt != nil && now.Before(*scheduledAt) {
		return StatusScheduled
	}
	return StatusActive
}

// StatusNow reports the poll's time-derived state as of now.
func (p *Poll) StatusNow(now time.Time) PollStatus {
	return StatusAt(p.ScheduledAt, p.ExpiresAt, now)
}
