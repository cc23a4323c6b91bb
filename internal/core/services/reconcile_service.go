package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

type reconcileService struct {
	store ports.Store
}

func NewReconcileService(store ports.Store) ports.ReconcileService {
	return &reconcileService{store: store}
}

// Reconcile rebuilds candidate tallies from the ledger and reports every
// counter that disagrees with it. With repair set, mismatching tallies are
// overwritten with ledger counts taken again under the tally lock, so votes
// cast while the report was built are kept.
func (s *reconcileService) Reconcile(ctx context.Context, repair bool) (*domain.ReconcileReport, error) {
	var (
		candidates  []domain.Candidate
		byCandidate map[uuid.UUID]int64
		ledgerVotes int
		usedKeys    int
		session     *domain.VotingSession
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.store.Candidates().List(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch candidates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byCandidate, err = s.store.Votes().CountByCandidate(gctx)
		if err != nil {
			return fmt.Errorf("failed to count ledger by candidate: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ledgerVotes, err = s.store.Votes().Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count ledger: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		_, usedKeys, err = s.store.Keys().Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count keys: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		session, err = s.store.Sessions().GetLatest(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch latest session: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.ReconcileReport{
		LedgerVotes: ledgerVotes,
		UsedKeys:    usedKeys,
		Mismatches:  tallyMismatches(candidates, byCandidate),
	}

	known := make(map[uuid.UUID]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
		report.TallySum += c.Votes
	}
	for id, n := range byCandidate {
		if _, ok := known[id]; !ok {
			report.OrphanLedgerVotes += n
		}
	}

	if session != nil {
		from, to := session.Window()
		n, err := s.store.Votes().CountBetween(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to count session ledger: %w", err)
		}
		report.SessionTotal = session.TotalVotes
		report.SessionLedger = n
	}

	if repair && len(report.Mismatches) > 0 {
		repaired, err := s.repairTallies(ctx)
		if err != nil {
			return nil, err
		}
		report.Mismatches = repaired
		report.Repaired = true
		slog.Warn("candidate tallies repaired from ledger", "candidates", len(repaired))
	}

	return report, nil
}

func (s *reconcileService) repairTallies(ctx context.Context) ([]domain.TallyMismatch, error) {
	var repaired []domain.TallyMismatch
	err := s.store.Atomic(ctx, func(tx ports.Store) error {
		if err := tx.Candidates().LockTallies(ctx); err != nil {
			return err
		}
		candidates, err := tx.Candidates().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch candidates: %w", err)
		}
		byCandidate, err := tx.Votes().CountByCandidate(ctx)
		if err != nil {
			return fmt.Errorf("failed to count ledger by candidate: %w", err)
		}

		repaired = tallyMismatches(candidates, byCandidate)
		for _, m := range repaired {
			if err := tx.Candidates().SetVotes(ctx, m.CandidateID, m.Ledger); err != nil {
				return fmt.Errorf("failed to repair candidate %s: %w", m.CandidateID, err)
			}
		}
		return nil
	})
	return repaired, err
}

func tallyMismatches(candidates []domain.Candidate, byCandidate map[uuid.UUID]int64) []domain.TallyMismatch {
	mismatches := []domain.TallyMismatch{}
	for _, c := range candidates {
		if ledger := byCandidate[c.ID]; ledger != c.Votes {
			mismatches = append(mismatches, domain.TallyMismatch{
				CandidateID: c.ID,
				Name:        c.Name,
				Tally:       c.Votes,
				Ledger:      ledger,
			})
		}
	}
	return mismatches
}
