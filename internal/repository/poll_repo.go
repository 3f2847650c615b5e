package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPollLimitReached is returned when a free-tier user already has the
// maximum number of currently-active polls.
var ErrPollLimitReached = errors.New("poll_limit_reached")

// activePollPredicate selects polls that are active by their timestamps,
// independent of the cached status column.
const activePollPredicate = `expires_at > $4 AND (scheduled_at IS NULL OR scheduled_at <= $4)`

// PollRepository defines methods for accessing poll and option data.
type PollRepository interface {
	// CreatePollWithOptions atomically checks the creator's active-poll count
	// against maxActive and inserts the poll with its options. maxActive <= 0
	// disables the check. Returns ErrPollLimitReached when the quota is hit.
	CreatePollWithOptions(ctx context.Context, p *model.Poll, optionTexts []string, maxActive int) error
	// GetPollByID returns the poll with its options, or nil if it does not exist.
	GetPollByID(ctx context.Context, pollID string) (*model.Poll, error)
	ListByExperience(ctx context.Context, experienceID, userID string) ([]model.Poll, error)
	ListByCompany(ctx context.Context, companyID, userID string) ([]model.Poll, error)
	// DeletePoll removes the poll; options and votes cascade.
	DeletePoll(ctx context.Context, pollID string) error
	// ActivateDue flips scheduled polls whose launch time has passed to
	// active and returns them. Idempotent and safe under concurrent sweeps.
	ActivateDue(ctx context.Context, now time.Time) ([]model.Poll, error)
	// ExpireDue flips active polls past their expiry to expired and returns them.
	ExpireDue(ctx context.Context, now time.Time) ([]model.Poll, error)
	// CountActiveByCreator counts the creator's polls that are active by
	// timestamps within the given scope.
	CountActiveByCreator(ctx context.Context, userID, companyID, experienceID string, now time.Time) (int, error)
	CountCreatedByCreator(ctx context.Context, userID, companyID, experienceID string) (int, error)
}

type pollRepo struct {
	pool *pgxpool.Pool
}

// NewPollRepo creates a new PollRepository.
func NewPollRepo(pool *pgxpool.Pool) PollRepository {
	return &pollRepo{pool: pool}
}

// CreatePollWithOptions inserts the poll and its options in one serializable
// transaction, checking the active-poll quota inside the same transaction so
// concurrent creators cannot both pass the check.
func (r *pollRepo) CreatePollWithOptions(ctx context.Context, p *model.Poll, optionTexts []string, maxActive int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction for poll create: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if maxActive > 0 {
		var count int
		const countQ = `
			SELECT COUNT(*)
			FROM polls
			WHERE creator_user_id = $1
			  AND company_id = $2
			  AND experience_id = $3
			  AND ` + activePollPredicate + `
		`
		if err := tx.QueryRow(ctx, countQ, p.CreatorUserID, p.CompanyID, p.ExperienceID, time.Now()).Scan(&count); err != nil {
			return fmt.Errorf("counting active polls for user %s: %w", p.CreatorUserID, err)
		}
		if count >= maxActive {
			return ErrPollLimitReached
		}
	}

	const insertPollQ = `
		INSERT INTO polls (question, company_id, experience_id, creator_user_id,
		                   expires_at, scheduled_at, is_anonymous, send_notification, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, insertPollQ,
		p.Question, p.CompanyID, p.ExperienceID, p.CreatorUserID,
		p.ExpiresAt, p.ScheduledAt, p.IsAnonymous, p.SendNotification, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting poll for user %s: %w", p.CreatorUserID, err)
	}

	const insertOptionQ = `
		INSERT INTO poll_options (poll_id, option_text, vote_count)
		VALUES ($1, $2, 0)
		RETURNING id, created_at
	`
	p.Options = make([]model.PollOption, 0, len(optionTexts))
	for _, text := range optionTexts {
		opt := model.PollOption{PollID: p.ID, OptionText: text}
		if err := tx.QueryRow(ctx, insertOptionQ, p.ID, text).Scan(&opt.ID, &opt.CreatedAt); err != nil {
			return fmt.Errorf("inserting option for poll %s: %w", p.ID, err)
		}
		p.Options = append(p.Options, opt)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing poll create for user %s: %w", p.CreatorUserID, err)
	}
	return nil
}

// GetPollByID retrieves a poll with its options in creation order.
func (r *pollRepo) GetPollByID(ctx context.Context, pollID string) (*model.Poll, error) {
	const q = `
		SELECT id, question, company_id, experience_id, creator_user_id,
		       expires_at, scheduled_at, is_anonymous, send_notification, status, created_at
		FROM polls
		WHERE id = $1
	`
	var p model.Poll
	err := r.pool.QueryRow(ctx, q, pollID).Scan(
		&p.ID,
		&p.Question,
		&p.CompanyID,
		&p.ExperienceID,
		&p.CreatorUserID,
		&p.ExpiresAt,
		&p.ScheduledAt,
		&p.IsAnonymous,
		&p.SendNotification,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching poll %s: %w", pollID, err)
	}

	options, err := r.optionsForPolls(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Options = options[p.ID]
	for _, opt := range p.Options {
		p.TotalVotes += opt.VoteCount
	}
	return &p, nil
}

func (r *pollRepo) ListByExperience(ctx context.Context, experienceID, userID string) ([]model.Poll, error) {
	const q = `
		SELECT id, question, company_id, experience_id, creator_user_id,
		       expires_at, scheduled_at, is_anonymous, send_notification, status, created_at
		FROM polls
		WHERE experience_id = $1
		ORDER BY created_at DESC
	`
	return r.listPolls(ctx, q, experienceID, userID)
}

func (r *pollRepo) ListByCompany(ctx context.Context, companyID, userID string) ([]model.Poll, error) {
	const q = `
		SELECT id, question, company_id, experience_id, creator_user_id,
		       expires_at, scheduled_at, is_anonymous, send_notification, status, created_at
		FROM polls
		WHERE company_id = $1
		ORDER BY created_at DESC
	`
	return r.listPolls(ctx, q, companyID, userID)
}

// listPolls runs the given scope query, then attaches options (in creation
// order), per-option percentages, vote totals and the caller's ballot.
func (r *pollRepo) listPolls(ctx context.Context, query, scopeID, userID string) ([]model.Poll, error) {
	rows, err := r.pool.Query(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("listing polls for scope %s: %w", scopeID, err)
	}
	defer rows.Close()

	var polls []model.Poll
	for rows.Next() {
		var p model.Poll
		if err := rows.Scan(
			&p.ID,
			&p.Question,
			&p.CompanyID,
			&p.ExperienceID,
			&p.CreatorUserID,
			&p.ExpiresAt,
			&p.ScheduledAt,
			&p.IsAnonymous,
			&p.SendNotification,
			&p.Status,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning poll row: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing polls for scope %s: %w", scopeID, err)
	}
	if len(polls) == 0 {
		return []model.Poll{}, nil
	}

	pollIDs := make([]string, len(polls))
	for i := range polls {
		pollIDs[i] = polls[i].ID
	}

	options, err := r.optionsForPolls(ctx, pollIDs)
	if err != nil {
		return nil, err
	}
	userVotes, err := r.votesForUser(ctx, pollIDs, userID)
	if err != nil {
		return nil, err
	}

	for i := range polls {
		p := &polls[i]
		p.Options = options[p.ID]
		for _, opt := range p.Options {
			p.TotalVotes += opt.VoteCount
		}
		for j := range p.Options {
			if p.TotalVotes > 0 {
				p.Options[j].Percentage = int(float64(p.Options[j].VoteCount)/float64(p.TotalVotes)*100 + 0.5)
			}
		}
		if optionID, ok := userVotes[p.ID]; ok {
			p.UserVoted = true
			id := optionID
			p.UserVoteOptionID = &id
		}
	}
	return polls, nil
}

func (r *pollRepo) optionsForPolls(ctx context.Context, pollIDs []string) (map[string][]model.PollOption, error) {
	const q = `
		SELECT id, poll_id, option_text, vote_count, created_at
		FROM poll_options
		WHERE poll_id = ANY($1)
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, q, pollIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching options: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.PollOption)
	for rows.Next() {
		var opt model.PollOption
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.OptionText, &opt.VoteCount, &opt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning option row: %w", err)
		}
		result[opt.PollID] = append(result[opt.PollID], opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetching options: %w", err)
	}
	return result, nil
}

func (r *pollRepo) votesForUser(ctx context.Context, pollIDs []string, userID string) (map[string]string, error) {
	const q = `
		SELECT poll_id, option_id
		FROM poll_votes
		WHERE poll_id = ANY($1) AND user_id = $2
	`
	rows, err := r.pool.Query(ctx, q, pollIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching votes for user %s: %w", userID, err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var pollID, optionID string
		if err := rows.Scan(&pollID, &optionID); err != nil {
			return nil, fmt.Errorf("scanning vote row: %w", err)
		}
		result[pollID] = optionID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetching votes for user %s: %w", userID, err)
	}
	return result, nil
}

// DeletePoll removes the poll row; foreign keys cascade to options and votes.
func (r *pollRepo) DeletePoll(ctx context.Context, pollID string) error {
	const q = `DELETE FROM polls WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, pollID); err != nil {
		return fmt.Errorf("deleting poll %s: %w", pollID, err)
	}
	return nil
}

// ActivateDue promotes due scheduled polls. Re-running with the same clock is
// a no-op because the WHERE clause only matches polls still in 'scheduled'.
func (r *pollRepo) ActivateDue(ctx context.Context, now time.Time) ([]model.Poll, error) {
	const q = `
		UPDATE polls
		SET status = 'active'
		WHERE status = 'scheduled'
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at <= $1
		RETURNING id, question, company_id, experience_id, creator_user_id,
		          expires_at, scheduled_at, is_anonymous, send_notification, status, created_at
	`
	return r.sweep(ctx, q, now)
}

// ExpireDue demotes past-expiry active polls.
func (r *pollRepo) ExpireDue(ctx context.Context, now time.Time) ([]model.Poll, error) {
	const q = `
		UPDATE polls
		SET status = 'expired'
		WHERE status = 'active'
		  AND expires_at <= $1
		RETURNING id, question, company_id, experience_id, creator_user_id,
		          expires_at, scheduled_at, is_anonymous, send_notification, status, created_at
	`
	return r.sweep(ctx, q, now)
}

func (r *pollRepo) sweep(ctx context.Context, query string, now time.Time) ([]model.Poll, error) {
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("sweeping polls: %w", err)
	}
	defer rows.Close()

	var changed []model.Poll
	for rows.Next() {
		var p model.Poll
		if err := rows.Scan(
			&p.ID,
			&p.Question,
			&p.CompanyID,
			&p.ExperienceID,
			&p.CreatorUserID,
			&p.ExpiresAt,
			&p.ScheduledAt,
			&p.IsAnonymous,
			&p.SendNotification,
			&p.Status,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning swept poll: %w", err)
		}
		changed = append(changed, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sweeping polls: %w", err)
	}
	return changed, nil
}

// CountActiveByCreator counts the user's polls in the scope that are active
// by timestamps, regardless of the cached status column.
func (r *pollRepo) CountActiveByCreator(ctx context.Context, userID, companyID, experienceID string, now time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM polls
		WHERE creator_user_id = $1
		  AND company_id = $2
		  AND experience_id = $3
		  AND ` + activePollPredicate + `
	`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, companyID, experienceID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active polls for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *pollRepo) CountCreatedByCreator(ctx context.Context, userID, companyID, experienceID string) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM polls
		WHERE creator_user_id = $1
		  AND company_id = $2
		  AND experience_id = $3
	`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, companyID, experienceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting polls for user %s: %w", userID, err)
	}
	return count, nil
}
