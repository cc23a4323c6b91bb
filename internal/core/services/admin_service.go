package services

import (
	"context"
	"log/slog"

	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type adminService struct {
	store ports.Store
}

func NewAdminService(store ports.Store) ports.AdminService {
	return &adminService{store: store}
}

func (s *adminService) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	err := s.store.Atomic(ctx, func(tx ports.Store) error {
		total, used, err := tx.Keys().Count(ctx)
		if err != nil {
			return err
		}
		votes, err := tx.Votes().Count(ctx)
		if err != nil {
			return err
		}
		candidates, err := tx.Candidates().List(ctx)
		if err != nil {
			return err
		}
		session, err := tx.Sessions().GetActive(ctx)
		if err != nil {
			return err
		}
		if session == nil {
			session, err = tx.Sessions().GetLatest(ctx)
			if err != nil {
				return err
			}
		}

		sortByVotes(candidates)
		stats.TotalKeys = total
		stats.UsedKeys = used
		stats.RemainingKeys = total - used
		stats.TotalVotes = votes
		stats.Candidates = candidates
		stats.CurrentSession = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Reset wipes keys, candidates, sessions and the ledger together.
func (s *adminService) Reset(ctx context.Context) error {
	err := s.store.Atomic(ctx, func(tx ports.Store) error {
		if err := tx.Votes().DeleteAll(ctx); err != nil {
			return err
		}
		if err := tx.Keys().DeleteAll(ctx); err != nil {
			return err
		}
		if err := tx.Candidates().DeleteAll(ctx); err != nil {
			return err
		}
		return tx.Sessions().DeleteAll(ctx)
	})
	if err != nil {
		return err
	}

	slog.Warn("all voting data has been reset")
	return nil
}
