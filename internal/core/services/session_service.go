package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type sessionService struct {
	store ports.Store
	now   func() time.Time
}

func NewSessionService(store ports.Store) ports.SessionService {
	return &sessionService{
		store: store,
		now:   time.Now,
	}
}

// Start closes any active session and opens a new one in the same unit of
// work, so at most one session is ever active.
func (s *sessionService) Start(ctx context.Context) (*domain.VotingSession, error) {
	var (
		session *domain.VotingSession
		closed  int
	)
	err := s.store.Atomic(ctx, func(tx ports.Store) error {
		now := s.now().UTC()
		session = &domain.VotingSession{
			ID:        uuid.New(),
			IsActive:  true,
			StartTime: now,
			CreatedAt: now,
		}

		var err error
		closed, err = tx.Sessions().DeactivateAll(ctx, now)
		if err != nil {
			return err
		}
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("voting session started", "session_id", session.ID, "closed_previous", closed)
	return session, nil
}

func (s *sessionService) Stop(ctx context.Context) (*domain.VotingSession, error) {
	var session *domain.VotingSession
	err := s.store.Atomic(ctx, func(tx ports.Store) error {
		active, err := tx.Sessions().GetActive(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return domain.ErrNoActiveSession
		}
		now := s.now().UTC()
		if _, err := tx.Sessions().DeactivateAll(ctx, now); err != nil {
			return err
		}

		active.IsActive = false
		active.EndTime = &now
		session = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("voting session stopped", "session_id", session.ID, "total_votes", session.TotalVotes)
	return session, nil
}

func (s *sessionService) Status(ctx context.Context) (*domain.SessionStatus, error) {
	active, err := s.store.Sessions().GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return &domain.SessionStatus{
			IsActive: false,
			Session:  &domain.VotingSession{},
		}, nil
	}

	return &domain.SessionStatus{
		IsActive: true,
		Session:  active,
	}, nil
}
