package jsonfile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type keyRepository struct {
	s *Store
}

func (r *keyRepository) ReplaceAll(ctx context.Context, keys []domain.VotingKey) error {
	return r.s.run(ctx, func(t *txn) error {
		t.data.keys = append([]domain.VotingKey{}, keys...)
		t.touch(keysFile)
		return nil
	})
}

func (r *keyRepository) GetByKey(ctx context.Context, key string) (*domain.VotingKey, error) {
	var found *domain.VotingKey
	err := r.s.run(ctx, func(t *txn) error {
		for _, k := range t.data.keys {
			if k.Key == key {
				k := k
				found = &k
				return nil
			}
		}
		return domain.ErrKeyNotFound
	})
	return found, err
}

func (r *keyRepository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.s.run(ctx, func(t *txn) error {
		for i := range t.data.keys {
			k := &t.data.keys[i]
			if k.ID != id {
				continue
			}
			if k.Used {
				return domain.ErrKeyAlreadyUsed
			}
			usedAt := at.UTC()
			k.Used = true
			k.UsedAt = &usedAt
			t.touch(keysFile)
			return nil
		}
		return domain.ErrKeyNotFound
	})
}

func (r *keyRepository) List(ctx context.Context) ([]domain.VotingKey, error) {
	var keys []domain.VotingKey
	err := r.s.run(ctx, func(t *txn) error {
		keys = append([]domain.VotingKey{}, t.data.keys...)
		return nil
	})
	return keys, err
}

func (r *keyRepository) Count(ctx context.Context) (int, int, error) {
	var total, used int
	err := r.s.run(ctx, func(t *txn) error {
		total = len(t.data.keys)
		for _, k := range t.data.keys {
			if k.Used {
				used++
			}
		}
		return nil
	})
	return total, used, err
}

func (r *keyRepository) DeleteAll(ctx context.Context) error {
	return r.s.run(ctx, func(t *txn) error {
		t.data.keys = []domain.VotingKey{}
		t.touch(keysFile)
		return nil
	})
}

type candidateRepository struct {
	s *Store
}

func (r *candidateRepository) ReplaceAll(ctx context.Context, candidates []domain.Candidate) error {
	return r.s.run(ctx, func(t *txn) error {
		t.data.candidates = append([]domain.Candidate{}, candidates...)
		t.touch(candidatesFile)
		return nil
	})
}

func (r *candidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	err := r.s.run(ctx, func(t *txn) error {
		candidates = append([]domain.Candidate{}, t.data.candidates...)
		return nil
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Position < candidates[j].Position
	})
	return candidates, err
}

func (r *candidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	var found *domain.Candidate
	err := r.s.run(ctx, func(t *txn) error {
		for _, c := range t.data.candidates {
			if c.ID == id {
				c := c
				found = &c
				return nil
			}
		}
		return domain.ErrCandidateNotFound
	})
	return found, err
}

func (r *candidateRepository) IncrementVotes(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, func(c *domain.Candidate) { c.Votes++ })
}

func (r *candidateRepository) SetVotes(ctx context.Context, id uuid.UUID, votes int64) error {
	if votes < 0 {
		return fmt.Errorf("%w: votes cannot be negative", domain.ErrValidation)
	}
	return r.update(ctx, id, func(c *domain.Candidate) { c.Votes = votes })
}

// LockTallies is satisfied by the store lock every unit of work holds.
func (r *candidateRepository) LockTallies(ctx context.Context) error {
	return r.s.run(ctx, func(*txn) error { return nil })
}

func (r *candidateRepository) update(ctx context.Context, id uuid.UUID, fn func(*domain.Candidate)) error {
	return r.s.run(ctx, func(t *txn) error {
		for i := range t.data.candidates {
			if t.data.candidates[i].ID == id {
				fn(&t.data.candidates[i])
				t.touch(candidatesFile)
				return nil
			}
		}
		return domain.ErrCandidateNotFound
	})
}

func (r *candidateRepository) DeleteAll(ctx context.Context) error {
	return r.s.run(ctx, func(t *txn) error {
		t.data.candidates = []domain.Candidate{}
		t.touch(candidatesFile)
		return nil
	})
}

type sessionRepository struct {
	s *Store
}

func (r *sessionRepository) GetActive(ctx context.Context) (*domain.VotingSession, error) {
	var found *domain.VotingSession
	err := r.s.run(ctx, func(t *txn) error {
		for _, s := range t.data.sessions {
			if s.IsActive {
				s := s
				found = &s
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *sessionRepository) GetLatest(ctx context.Context) (*domain.VotingSession, error) {
	var found *domain.VotingSession
	err := r.s.run(ctx, func(t *txn) error {
		for _, s := range t.data.sessions {
			if found == nil || !s.StartTime.Before(found.StartTime) {
				s := s
				found = &s
			}
		}
		return nil
	})
	return found, err
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.VotingSession) error {
	return r.s.run(ctx, func(t *txn) error {
		if session.IsActive {
			for _, s := range t.data.sessions {
				if s.IsActive {
					return fmt.Errorf("%w: another voting session is already active", domain.ErrConflict)
				}
			}
		}
		t.data.sessions = append(t.data.sessions, *session)
		t.touch(sessionsFile)
		return nil
	})
}

func (r *sessionRepository) DeactivateAll(ctx context.Context, at time.Time) (int, error) {
	var closed int
	err := r.s.run(ctx, func(t *txn) error {
		for i := range t.data.sessions {
			s := &t.data.sessions[i]
			if !s.IsActive {
				continue
			}
			end := at.UTC()
			s.IsActive = false
			s.EndTime = &end
			closed++
		}
		if closed > 0 {
			t.touch(sessionsFile)
		}
		return nil
	})
	return closed, err
}

func (r *sessionRepository) IncrementTotalVotes(ctx context.Context, id uuid.UUID) error {
	return r.s.run(ctx, func(t *txn) error {
		for i := range t.data.sessions {
			s := &t.data.sessions[i]
			if s.ID == id && s.IsActive {
				s.TotalVotes++
				t.touch(sessionsFile)
				return nil
			}
		}
		return domain.ErrSessionInactive
	})
}

func (r *sessionRepository) DeleteAll(ctx context.Context) error {
	return r.s.run(ctx, func(t *txn) error {
		t.data.sessions = []domain.VotingSession{}
		t.touch(sessionsFile)
		return nil
	})
}

type voteRepository struct {
	s *Store
}

func (r *voteRepository) Save(ctx context.Context, vote *domain.Vote) error {
	return r.s.run(ctx, func(t *txn) error {
		for _, v := range t.data.votes {
			if v.KeyHash == vote.KeyHash {
				return domain.ErrDuplicateVote
			}
		}
		t.data.votes = append(t.data.votes, voteRecord{
			ID:          vote.ID,
			CandidateID: vote.CandidateID,
			KeyHash:     vote.KeyHash,
			Timestamp:   vote.Timestamp.UTC(),
		})
		t.touch(votesFile)
		return nil
	})
}

func (r *voteRepository) ExistsByKeyHash(ctx context.Context, keyHash string) (bool, error) {
	var exists bool
	err := r.s.run(ctx, func(t *txn) error {
		for _, v := range t.data.votes {
			if v.KeyHash == keyHash {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r *voteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.s.run(ctx, func(t *txn) error {
		n = len(t.data.votes)
		return nil
	})
	return n, err
}

func (r *voteRepository) CountBetween(ctx context.Context, from time.Time, to *time.Time) (int, error) {
	var n int
	err := r.s.run(ctx, func(t *txn) error {
		for _, v := range t.data.votes {
			if v.Timestamp.Before(from) {
				continue
			}
			if to != nil && !v.Timestamp.Before(*to) {
				continue
			}
			n++
		}
		return nil
	})
	return n, err
}

func (r *voteRepository) CountByCandidate(ctx context.Context) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64)
	err := r.s.run(ctx, func(t *txn) error {
		for _, v := range t.data.votes {
			counts[v.CandidateID]++
		}
		return nil
	})
	return counts, err
}

func (r *voteRepository) DeleteAll(ctx context.Context) error {
	return r.s.run(ctx, func(t *txn) error {
		t.data.votes = []voteRecord{}
		t.touch(votesFile)
		return nil
	})
}
