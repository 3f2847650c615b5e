package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConcurrentVote is returned when two simultaneous first votes from the
// same user hit the ballot uniqueness constraint. The losing request can be
// retried; it will then be treated as a vote change.
var ErrConcurrentVote = errors.New("concurrent_vote")

// VoteRepository maintains the ballot ledger and the denormalized per-option
// counters. All counter adjustments are atomic UPDATE ... SET vote_count =
// vote_count +/- 1 statements, never read-modify-write.
type VoteRepository interface {
	// CastVote records or moves the user's ballot. A repeat vote for the
	// option the ballot already points at is a no-op.
	CastVote(ctx context.Context, pollID, optionID, userID string) error
	// HasVoted reports whether the user has a ballot on the poll.
	HasVoted(ctx context.Context, pollID, userID string) (bool, error)
}

type voteRepo struct {
	pool *pgxpool.Pool
}

// NewVoteRepo creates a new VoteRepository.
func NewVoteRepo(pool *pgxpool.Pool) VoteRepository {
	return &voteRepo{pool: pool}
}

func (r *voteRepo) CastVote(ctx context.Context, pollID, optionID, userID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting transaction for vote: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Lock the user's ballot row if it exists so a vote change cannot race
	// with itself across two requests.
	var voteID, currentOptionID string
	const selectQ = `
		SELECT id, option_id
		FROM poll_votes
		WHERE poll_id = $1 AND user_id = $2
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, selectQ, pollID, userID).Scan(&voteID, &currentOptionID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// First vote: insert the ballot and bump the option counter. The
		// unique constraint on (poll_id, user_id) is the defense against a
		// double-submit racing this insert.
		const insertQ = `INSERT INTO poll_votes (poll_id, option_id, user_id) VALUES ($1, $2, $3)`
		if _, err := tx.Exec(ctx, insertQ, pollID, optionID, userID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrConcurrentVote
			}
			return fmt.Errorf("inserting vote for user %s on poll %s: %w", userID, pollID, err)
		}
		if err := r.adjustCount(ctx, tx, optionID, +1); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("checking existing vote for user %s on poll %s: %w", userID, pollID, err)
	case currentOptionID == optionID:
		// Idempotent re-vote for the same choice.
		return tx.Commit(ctx)
	default:
		// Vote change: move the ballot, decrement the old option, increment
		// the new one, all inside this transaction.
		const updateQ = `UPDATE poll_votes SET option_id = $1 WHERE id = $2`
		if _, err := tx.Exec(ctx, updateQ, optionID, voteID); err != nil {
			return fmt.Errorf("moving vote %s to option %s: %w", voteID, optionID, err)
		}
		if err := r.adjustCount(ctx, tx, currentOptionID, -1); err != nil {
			return err
		}
		if err := r.adjustCount(ctx, tx, optionID, +1); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing vote for user %s on poll %s: %w", userID, pollID, err)
	}
	return nil
}

func (r *voteRepo) adjustCount(ctx context.Context, tx pgx.Tx, optionID string, delta int) error {
	const q = `UPDATE poll_options SET vote_count = vote_count + $1 WHERE id = $2`
	if _, err := tx.Exec(ctx, q, delta, optionID); err != nil {
		return fmt.Errorf("adjusting vote count for option %s: %w", optionID, err)
	}
	return nil
}

func (r *voteRepo) HasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM poll_votes WHERE poll_id = $1 AND user_id = $2
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, pollID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking vote for user %s on poll %s: %w", userID, pollID, err)
	}
	return exists, nil
}
