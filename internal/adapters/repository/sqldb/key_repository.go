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

type keyRepository struct {
	q querier
}

func (r *keyRepository) ReplaceAll(ctx context.Context, keys []domain.VotingKey) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM voting_keys`); err != nil {
		return fmt.Errorf("failed to clear voting keys: %w", err)
	}

	query := `
		INSERT INTO voting_keys (id, voting_key, used, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare key statement: %w", err)
	}
	defer stmt.Close()

	for _, k := range keys {
		_, err = stmt.ExecContext(ctx, k.ID, k.Key, k.Used, k.UsedAt, k.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert voting key: %w", err)
		}
	}

	return nil
}

func (r *keyRepository) GetByKey(ctx context.Context, key string) (*domain.VotingKey, error) {
	query := `
		SELECT id, voting_key, used, used_at, created_at
		FROM voting_keys
		WHERE voting_key = $1
	`
	k, err := scanKey(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get voting key: %w", err)
	}
	return k, nil
}

func (r *keyRepository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE voting_keys SET used = TRUE, used_at = $2 WHERE id = $1 AND used = FALSE`
	res, err := r.q.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark voting key as used: %w", err)
	}

	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var used bool
	err = r.q.QueryRowContext(ctx, `SELECT used FROM voting_keys WHERE id = $1`, id).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check voting key: %w", err)
	}
	return domain.ErrKeyAlreadyUsed
}

func (r *keyRepository) List(ctx context.Context) ([]domain.VotingKey, error) {
	query := `
		SELECT id, voting_key, used, used_at, created_at
		FROM voting_keys
		ORDER BY created_at, voting_key
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list voting keys: %w", err)
	}
	defer rows.Close()

	keys := []domain.VotingKey{}
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voting key: %w", err)
		}
		keys = append(keys, *k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voting keys: %w", err)
	}
	return keys, nil
}

func (r *keyRepository) Count(ctx context.Context) (int, int, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN used THEN 1 ELSE 0 END), 0)
		FROM voting_keys
	`
	var total, used int
	if err := r.q.QueryRowContext(ctx, query).Scan(&total, &used); err != nil {
		return 0, 0, fmt.Errorf("failed to count voting keys: %w", err)
	}
	return total, used, nil
}

func (r *keyRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM voting_keys`); err != nil {
		return fmt.Errorf("failed to delete voting keys: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKey(row scanner) (*domain.VotingKey, error) {
	var (
		k      domain.VotingKey
		usedAt sql.NullTime
	)
	if err := row.Scan(&k.ID, &k.Key, &k.Used, &usedAt, &k.CreatedAt); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		t := usedAt.Time.UTC()
		k.UsedAt = &t
	}
	k.CreatedAt = k.CreatedAt.UTC()
	return &k, nil
}
