package model

import "time"

// Vote is the ledger record of a single user's current choice on a poll.
// There is at most one row per (poll_id, user_id); changing a vote moves the
// ballot to a different option rather than inserting a new row.
type Vote struct {
	ID        string    `db:"id" json:"id"`
	PollID    string    `db:"poll_id" json:"poll_id"`
	OptionID  string    `db:"option_id" json:"option_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
