package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type voteService struct {
	store  ports.Store
	tokens ports.TokenVerifier
	hasher KeyHasher
	now    func() time.Time
}

func NewVoteService(store ports.Store, tokens ports.TokenVerifier, hasher KeyHasher) ports.VoteService {
	return &voteService{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		now:    time.Now,
	}
}

// CastVote records one vote. Every check and all four writes (ledger entry,
// key usage, candidate tally, session total) run in a single unit of work.
func (s *voteService) CastVote(ctx context.Context, input ports.CastVoteInput) error {
	claims, err := s.tokens.VerifyVoterToken(input.Token)
	if err != nil {
		return err
	}

	candidateID, parseErr := uuid.Parse(input.CandidateID)
	keyHash := s.hasher.Hash(claims.Key)

	var sessionID uuid.UUID
	err = s.store.Atomic(ctx, func(tx ports.Store) error {
		session, err := tx.Sessions().GetActive(ctx)
		if err != nil {
			return err
		}
		if session == nil {
			return domain.ErrSessionInactive
		}
		sessionID = session.ID

		if parseErr != nil {
			return domain.ErrCandidateNotFound
		}
		if _, err := tx.Candidates().GetByID(ctx, candidateID); err != nil {
			return err
		}

		key, err := tx.Keys().GetByKey(ctx, claims.Key)
		if err != nil {
			return err
		}
		if key.ID != claims.KeyID {
			// The key was regenerated after the token was issued.
			return domain.ErrKeyNotFound
		}

		voted, err := tx.Votes().ExistsByKeyHash(ctx, keyHash)
		if err != nil {
			return err
		}
		if voted {
			return domain.ErrDuplicateVote
		}
		if key.Used {
			return domain.ErrKeyAlreadyUsed
		}

		now := s.now().UTC()
		vote := &domain.Vote{
			ID:          uuid.New(),
			CandidateID: candidateID,
			KeyHash:     keyHash,
			Timestamp:   now,
		}
		if err := tx.Votes().Save(ctx, vote); err != nil {
			return err
		}
		if err := tx.Keys().MarkUsed(ctx, key.ID, now); err != nil {
			return err
		}
		if err := tx.Candidates().IncrementVotes(ctx, candidateID); err != nil {
			return err
		}
		return tx.Sessions().IncrementTotalVotes(ctx, session.ID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			slog.Warn("vote rejected", "reason", err.Error())
		} else if !isDomainError(err) {
			slog.Error("vote transaction failed", "error", err)
		}
		return err
	}

	slog.Info("vote accepted", "session_id", sessionID)
	return nil
}

func (s *voteService) Results(ctx context.Context) (*domain.Results, error) {
	candidates, err := s.store.Candidates().List(ctx)
	if err != nil {
		return nil, err
	}
	sortByVotes(candidates)

	session, err := s.store.Sessions().GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session, err = s.store.Sessions().GetLatest(ctx)
		if err != nil {
			return nil, err
		}
	}
	if session == nil {
		session = &domain.VotingSession{}
	}

	return &domain.Results{
		Candidates: candidates,
		Session:    session,
	}, nil
}

// sortByVotes orders by descending tally; ties keep their configured order.
func sortByVotes(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Votes > candidates[j].Votes
	})
}

func isDomainError(err error) bool {
	for _, kind := range []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrConflict,
		domain.ErrSessionInactive,
		domain.ErrUnauthorized,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
