// Package storetest holds the behaviour every ports.Store implementation
// must share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) ports.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Keys", func(t *testing.T) { testKeys(t, newStore(t)) })
	t.Run("Candidates", func(t *testing.T) { testCandidates(t, newStore(t)) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("Votes", func(t *testing.T) { testVotes(t, newStore(t)) })
	t.Run("AtomicRollback", func(t *testing.T) { testAtomicRollback(t, newStore(t)) })
	t.Run("ConcurrentSaveSameHash", func(t *testing.T) { testConcurrentSave(t, newStore(t)) })
}

var errAbort = errors.New("abort")

func ts(sec int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, sec, 0, time.UTC)
}

func testKeys(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Keys()

	first := []domain.VotingKey{
		{ID: uuid.New(), Key: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", CreatedAt: ts(0)},
		{ID: uuid.New(), Key: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", CreatedAt: ts(0)},
	}
	require.NoError(t, repo.ReplaceAll(ctx, first))

	got, err := repo.GetByKey(ctx, first[0].Key)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, got.ID)
	assert.False(t, got.Used)
	assert.Nil(t, got.UsedAt)

	_, err = repo.GetByKey(ctx, "cccccccccccccccccccccccccccccccc")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, repo.MarkUsed(ctx, first[0].ID, ts(5)))
	assert.ErrorIs(t, repo.MarkUsed(ctx, first[0].ID, ts(6)), domain.ErrKeyAlreadyUsed)
	assert.ErrorIs(t, repo.MarkUsed(ctx, uuid.New(), ts(6)), domain.ErrKeyNotFound)

	got, err = repo.GetByKey(ctx, first[0].Key)
	require.NoError(t, err)
	assert.True(t, got.Used)
	require.NotNil(t, got.UsedAt)
	assert.True(t, got.UsedAt.Equal(ts(5)))

	total, used, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, used)

	second := []domain.VotingKey{
		{ID: uuid.New(), Key: "dddddddddddddddddddddddddddddddd", CreatedAt: ts(10)},
	}
	require.NoError(t, repo.ReplaceAll(ctx, second))

	_, err = repo.GetByKey(ctx, first[1].Key)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	keys, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, second[0].Key, keys[0].Key)

	require.NoError(t, repo.DeleteAll(ctx))
	total, _, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func testCandidates(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Candidates()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	alice := domain.Candidate{ID: uuid.New(), Name: "Alice", Position: 2, CreatedAt: ts(0)}
	bob := domain.Candidate{ID: uuid.New(), Name: "Bob", Description: "b", Photo: "http://x/b.png", Position: 1, CreatedAt: ts(0)}
	require.NoError(t, repo.ReplaceAll(ctx, []domain.Candidate{alice, bob}))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].Name)
	assert.Equal(t, "http://x/b.png", list[0].Photo)
	assert.Equal(t, "Alice", list[1].Name)

	require.NoError(t, repo.IncrementVotes(ctx, alice.ID))
	require.NoError(t, repo.IncrementVotes(ctx, alice.ID))
	assert.ErrorIs(t, repo.IncrementVotes(ctx, uuid.New()), domain.ErrCandidateNotFound)

	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Votes)

	require.NoError(t, repo.SetVotes(ctx, alice.ID, 7))
	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Votes)

	require.NoError(t, repo.LockTallies(ctx))
	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Votes)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)

	carol := domain.Candidate{ID: uuid.New(), Name: "Carol", Position: 1, CreatedAt: ts(1)}
	require.NoError(t, repo.ReplaceAll(ctx, []domain.Candidate{carol}))
	_, err = repo.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)

	require.NoError(t, repo.DeleteAll(ctx))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testSessions(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Sessions()

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := &domain.VotingSession{ID: uuid.New(), IsActive: true, StartTime: ts(0), CreatedAt: ts(0)}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.VotingSession{ID: uuid.New(), IsActive: true, StartTime: ts(10), CreatedAt: ts(10)}
	assert.ErrorIs(t, repo.Create(ctx, second), domain.ErrConflict)

	require.NoError(t, repo.IncrementTotalVotes(ctx, first.ID))

	closed, err := repo.DeactivateAll(ctx, ts(9))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	assert.ErrorIs(t, repo.IncrementTotalVotes(ctx, first.ID), domain.ErrSessionInactive)

	require.NoError(t, repo.Create(ctx, second))

	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	latest, err = repo.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	closed, err = repo.DeactivateAll(ctx, ts(20))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	latest, err = repo.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.False(t, latest.IsActive)
	require.NotNil(t, latest.EndTime)
	assert.True(t, latest.EndTime.Equal(ts(20)))

	require.NoError(t, repo.DeleteAll(ctx))
	latest, err = repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func testVotes(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Votes()

	alice, bob := uuid.New(), uuid.New()
	votes := []*domain.Vote{
		{ID: uuid.New(), CandidateID: alice, KeyHash: "h1", Timestamp: ts(1)},
		{ID: uuid.New(), CandidateID: alice, KeyHash: "h2", Timestamp: ts(5)},
		{ID: uuid.New(), CandidateID: bob, KeyHash: "h3", Timestamp: ts(9)},
	}
	for _, v := range votes {
		require.NoError(t, repo.Save(ctx, v))
	}

	dup := &domain.Vote{ID: uuid.New(), CandidateID: bob, KeyHash: "h1", Timestamp: ts(10)}
	assert.ErrorIs(t, repo.Save(ctx, dup), domain.ErrDuplicateVote)

	exists, err := repo.ExistsByKeyHash(ctx, "h2")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByKeyHash(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountBetween(ctx, ts(5), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	end := ts(9)
	n, err = repo.CountBetween(ctx, ts(1), &end)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Adjacent windows share a boundary; the vote on it belongs to the later one.
	boundary := ts(5)
	n, err = repo.CountBetween(ctx, ts(1), &boundary)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.CountBetween(ctx, boundary, &end)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	byCandidate, err := repo.CountByCandidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{alice: 2, bob: 1}, byCandidate)

	require.NoError(t, repo.DeleteAll(ctx))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testAtomicRollback(t *testing.T, store ports.Store) {
	ctx := context.Background()

	candidate := domain.Candidate{ID: uuid.New(), Name: "Alice", Position: 1, CreatedAt: ts(0)}
	require.NoError(t, store.Candidates().ReplaceAll(ctx, []domain.Candidate{candidate}))

	err := store.Atomic(ctx, func(tx ports.Store) error {
		vote := &domain.Vote{ID: uuid.New(), CandidateID: candidate.ID, KeyHash: "h", Timestamp: ts(1)}
		if err := tx.Votes().Save(ctx, vote); err != nil {
			return err
		}
		if err := tx.Candidates().IncrementVotes(ctx, candidate.ID); err != nil {
			return err
		}

		// Writes are visible inside the unit of work, including nested calls.
		return tx.Atomic(ctx, func(inner ports.Store) error {
			got, err := inner.Candidates().GetByID(ctx, candidate.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.Votes)
			return errAbort
		})
	})
	require.ErrorIs(t, err, errAbort)

	n, err := store.Votes().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := store.Candidates().GetByID(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Votes)
}

func testConcurrentSave(t *testing.T, store ports.Store) {
	ctx := context.Background()
	const attempts = 10

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		duplicate atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Atomic(ctx, func(tx ports.Store) error {
				return tx.Votes().Save(ctx, &domain.Vote{
					ID:          uuid.New(),
					CandidateID: uuid.New(),
					KeyHash:     "same-key",
					Timestamp:   time.Now().UTC(),
				})
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrDuplicateVote):
				duplicate.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), duplicate.Load())
}
