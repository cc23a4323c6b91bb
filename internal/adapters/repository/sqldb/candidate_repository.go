package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type candidateRepository struct {
	q querier
}

func (r *candidateRepository) ReplaceAll(ctx context.Context, candidates []domain.Candidate) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM candidates`); err != nil {
		return fmt.Errorf("failed to clear candidates: %w", err)
	}

	query := `
		INSERT INTO candidates (id, name, description, photo, display_order, votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare candidate statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candidates {
		_, err = stmt.ExecContext(ctx, c.ID, c.Name, c.Description, c.Photo, c.Position, c.Votes, c.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
	}

	return nil
}

func (r *candidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	query := `
		SELECT id, name, description, photo, display_order, votes, created_at
		FROM candidates
		ORDER BY display_order
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	candidates := []domain.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	query := `
		SELECT id, name, description, photo, display_order, votes, created_at
		FROM candidates
		WHERE id = $1
	`
	c, err := scanCandidate(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

func (r *candidateRepository) IncrementVotes(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `UPDATE candidates SET votes = votes + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment candidate votes: %w", err)
	}
	return expectOne(res, domain.ErrCandidateNotFound)
}

func (r *candidateRepository) SetVotes(ctx context.Context, id uuid.UUID, votes int64) error {
	res, err := r.q.ExecContext(ctx, `UPDATE candidates SET votes = $2 WHERE id = $1`, id, votes)
	if err != nil {
		return fmt.Errorf("failed to set candidate votes: %w", err)
	}
	return expectOne(res, domain.ErrCandidateNotFound)
}

// LockTallies row-locks every candidate. A vote still in flight either
// committed before the lock was granted or blocks on its tally update.
func (r *candidateRepository) LockTallies(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE candidates SET votes = votes`); err != nil {
		return fmt.Errorf("failed to lock candidate tallies: %w", err)
	}
	return nil
}

func (r *candidateRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM candidates`); err != nil {
		return fmt.Errorf("failed to delete candidates: %w", err)
	}
	return nil
}

func scanCandidate(row scanner) (*domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Photo, &c.Position, &c.Votes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
