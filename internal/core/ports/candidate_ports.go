package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type CandidateRepository interface {
	ReplaceAll(ctx context.Context, candidates []domain.Candidate) error
	// List returns candidates ordered by position.
	List(ctx context.Context) ([]domain.Candidate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
	IncrementVotes(ctx context.Context, id uuid.UUID) error
	SetVotes(ctx context.Context, id uuid.UUID, votes int64) error
	// LockTallies holds off concurrent tally updates until the surrounding
	// unit of work ends.
	LockTallies(ctx context.Context) error
	DeleteAll(ctx context.Context) error
}

type CandidateService interface {
	Configure(ctx context.Context, input []domain.CandidateDescriptor) ([]domain.Candidate, error)
	ListCandidates(ctx context.Context) ([]domain.Candidate, error)
	GetCandidate(ctx context.Context, id string) (*domain.Candidate, error)
}
