package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type VoteRepository interface {
	// Save appends a ledger entry and returns domain.ErrDuplicateVote when
	// the key hash is already present.
	Save(ctx context.Context, vote *domain.Vote) error
	ExistsByKeyHash(ctx context.Context, keyHash string) (bool, error)
	Count(ctx context.Context) (int, error)
	// CountBetween counts entries with from <= timestamp, and timestamp < to
	// when to is not nil.
	CountBetween(ctx context.Context, from time.Time, to *time.Time) (int, error)
	CountByCandidate(ctx context.Context) (map[uuid.UUID]int64, error)
	DeleteAll(ctx context.Context) error
}

type CastVoteInput struct {
	Token       string
	CandidateID string
}

type VoteService interface {
	CastVote(ctx context.Context, input CastVoteInput) error
	Results(ctx context.Context) (*domain.Results, error)
}
