package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type SessionRepository interface {
	// GetActive returns nil when no session is active.
	GetActive(ctx context.Context) (*domain.VotingSession, error)
	// GetLatest returns the most recently started session or nil.
	GetLatest(ctx context.Context) (*domain.VotingSession, error)
	Create(ctx context.Context, session *domain.VotingSession) error
	// DeactivateAll closes every active session at the given instant and
	// reports how many were closed.
	DeactivateAll(ctx context.Context, at time.Time) (int, error)
	// IncrementTotalVotes bumps the counter of an active session and returns
	// domain.ErrSessionInactive if the session is no longer active.
	IncrementTotalVotes(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
}

type SessionService interface {
	Start(ctx context.Context) (*domain.VotingSession, error)
	Stop(ctx context.Context) (*domain.VotingSession, error)
	Status(ctx context.Context) (*domain.SessionStatus, error)
}
