package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type sessionRepository struct {
	q querier
}

const sessionColumns = `id, is_active, start_time, end_time, total_votes, created_at`

func (r *sessionRepository) GetActive(ctx context.Context) (*domain.VotingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM voting_sessions WHERE is_active LIMIT 1`
	return r.getOne(ctx, query)
}

func (r *sessionRepository) GetLatest(ctx context.Context) (*domain.VotingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM voting_sessions ORDER BY start_time DESC, created_at DESC LIMIT 1`
	return r.getOne(ctx, query)
}

func (r *sessionRepository) getOne(ctx context.Context, query string) (*domain.VotingSession, error) {
	s, err := scanSession(r.q.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get voting session: %w", err)
	}
	return s, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.VotingSession) error {
	query := `
		INSERT INTO voting_sessions (id, is_active, start_time, end_time, total_votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		session.ID, session.IsActive, session.StartTime.UTC(), session.EndTime, session.TotalVotes, session.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: another voting session is already active", domain.ErrConflict)
		}
		return fmt.Errorf("failed to create voting session: %w", err)
	}
	return nil
}

func (r *sessionRepository) DeactivateAll(ctx context.Context, at time.Time) (int, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE voting_sessions SET is_active = FALSE, end_time = $1 WHERE is_active`, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate voting sessions: %w", err)
	}
	n, err := affected(res)
	return int(n), err
}

func (r *sessionRepository) IncrementTotalVotes(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `UPDATE voting_sessions SET total_votes = total_votes + 1 WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("failed to increment session votes: %w", err)
	}
	return expectOne(res, domain.ErrSessionInactive)
}

func (r *sessionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM voting_sessions`); err != nil {
		return fmt.Errorf("failed to delete voting sessions: %w", err)
	}
	return nil
}

func scanSession(row scanner) (*domain.VotingSession, error) {
	var (
		s       domain.VotingSession
		endTime sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.IsActive, &s.StartTime, &endTime, &s.TotalVotes, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.StartTime = s.StartTime.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	if endTime.Valid {
		t := endTime.Time.UTC()
		s.EndTime = &t
	}
	return &s, nil
}
