package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type voteRepository struct {
	q querier
}

func (r *voteRepository) Save(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (id, candidate_id, key_hash, cast_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.q.ExecContext(ctx, query, vote.ID, vote.CandidateID, vote.KeyHash, vote.Timestamp.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateVote
		}
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}

func (r *voteRepository) ExistsByKeyHash(ctx context.Context, keyHash string) (bool, error) {
	query := `SELECT COUNT(*) FROM votes WHERE key_hash = $1`
	var n int
	if err := r.q.QueryRowContext(ctx, query, keyHash).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return n > 0, nil
}

func (r *voteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

func (r *voteRepository) CountBetween(ctx context.Context, from time.Time, to *time.Time) (int, error) {
	var (
		n   int
		err error
	)
	if to == nil {
		err = r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE cast_at >= $1`, from.UTC()).Scan(&n)
	} else {
		err = r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE cast_at >= $1 AND cast_at < $2`, from.UTC(), to.UTC()).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count session votes: %w", err)
	}
	return n, nil
}

func (r *voteRepository) CountByCandidate(ctx context.Context) (map[uuid.UUID]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT candidate_id, COUNT(*) FROM votes GROUP BY candidate_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes by candidate: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var (
			id    uuid.UUID
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[id] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vote counts: %w", err)
	}
	return counts, nil
}

func (r *voteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM votes`); err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	return nil
}
