package service

import "errors"

var (
	// ErrPollNotFound means the poll id does not resolve.
	ErrPollNotFound = errors.New("poll not found")
	// ErrOptionNotFound means the option does not exist or belongs to a
	// different poll.
	ErrOptionNotFound = errors.New("option not found for this poll")
	// ErrPollNotActive means the poll is expired or not yet launched. Expiry
	// is judged by timestamps, not the stored status.
	ErrPollNotActive = errors.New("poll is not active")
	// ErrQuotaExceeded means a free-tier user already has the maximum number
	// of active polls. Callers should offer an upgrade path.
	ErrQuotaExceeded = errors.New("poll limit reached")
	// ErrForbidden means the caller lacks the required access level.
	ErrForbidden = errors.New("forbidden")
	// ErrExpiryInPast means the requested expiry is not strictly in the future.
	ErrExpiryInPast = errors.New("expiry must be in the future")
)
