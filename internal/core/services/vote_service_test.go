package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

func TestVotingScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keys, candidates := f.prepare(t, true, "Alice", "Bob")
	require.Len(t, keys, domain.KeyBatchSize)
	alice, bob := candidates[0], candidates[1]

	f.vote(t, keys[0], alice)

	_, err := f.auth.RedeemKey(ctx, keys[0])
	assert.ErrorIs(t, err, domain.ErrKeyAlreadyUsed)

	f.vote(t, keys[1], bob)

	session, err := f.sessions.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), session.TotalVotes)

	results, err := f.votes.Results(ctx)
	require.NoError(t, err)
	require.Len(t, results.Candidates, 2)
	tallies := map[string]int64{}
	for _, c := range results.Candidates {
		tallies[c.Name] = c.Votes
	}
	assert.Equal(t, map[string]int64{"Alice": 1, "Bob": 1}, tallies)
	assert.Equal(t, int64(2), results.Session.TotalVotes)
	assert.False(t, results.Session.IsActive)
}

func TestCastVoteSecondAttemptWithSameKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, candidates := f.prepare(t, true, "Alice", "Bob")

	token := f.redeem(t, keys[0])
	require.NoError(t, f.votes.CastVote(ctx, ports.CastVoteInput{Token: token, CandidateID: candidates[0].ID.String()}))

	err := f.votes.CastVote(ctx, ports.CastVoteInput{Token: token, CandidateID: candidates[1].ID.String()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	bob, err := f.candidates.GetCandidate(ctx, candidates[1].ID.String())
	require.NoError(t, err)
	assert.Zero(t, bob.Votes)
}

func TestCastVoteRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, candidates := f.prepare(t, false, "Alice")
	token := f.redeem(t, keys[0])

	inputs := []ports.CastVoteInput{
		{Token: token, CandidateID: candidates[0].ID.String()},
		{Token: token, CandidateID: uuid.NewString()},
		{Token: token, CandidateID: "not-a-uuid"},
		{Token: forgeVoterToken(t, uuid.NewString(), strings.Repeat("9", domain.KeyLength)), CandidateID: candidates[0].ID.String()},
	}
	for _, input := range inputs {
		err := f.votes.CastVote(ctx, input)
		assert.ErrorIs(t, err, domain.ErrSessionInactive)
	}

	_, err := f.sessions.Start(ctx)
	require.NoError(t, err)
	_, err = f.sessions.Stop(ctx)
	require.NoError(t, err)

	err = f.votes.CastVote(ctx, inputs[0])
	assert.ErrorIs(t, err, domain.ErrSessionInactive)

	_, used, err := f.store.Keys().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestCastVoteUnknownCandidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, _ := f.prepare(t, true, "Alice")
	token := f.redeem(t, keys[0])

	for _, id := range []string{uuid.NewString(), "nope"} {
		err := f.votes.CastVote(ctx, ports.CastVoteInput{Token: token, CandidateID: id})
		assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
	}

	// The key is still usable.
	_, err := f.auth.RedeemKey(ctx, keys[0])
	assert.NoError(t, err)
}

func TestCastVoteNeverIssuedKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, candidates := f.prepare(t, true, "Alice")

	token := forgeVoterToken(t, uuid.NewString(), strings.Repeat("e", domain.KeyLength))
	err := f.votes.CastVote(ctx, ports.CastVoteInput{Token: token, CandidateID: candidates[0].ID.String()})
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestCastVoteInvalidToken(t *testing.T) {
	f := newFixture(t)
	_, candidates := f.prepare(t, true, "Alice")

	err := f.votes.CastVote(context.Background(), ports.CastVoteInput{
		Token:       "garbage",
		CandidateID: candidates[0].ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegeneratingKeysInvalidatesOldTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, candidates := f.prepare(t, true, "Alice")

	token := f.redeem(t, keys[0])

	fresh, err := f.keys.GenerateKeys(ctx)
	require.NoError(t, err)
	assert.NotContains(t, fresh, keys[0])

	err = f.votes.CastVote(ctx, ports.CastVoteInput{Token: token, CandidateID: candidates[0].ID.String()})
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	_, err = f.auth.RedeemKey(ctx, keys[0])
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestConcurrentVotesWithSameKey(t *testing.T) {
	t.Run("jsonfile", func(t *testing.T) { testConcurrentVotesWithSameKey(t, newFixture(t)) })
	t.Run("sqlite", func(t *testing.T) { testConcurrentVotesWithSameKey(t, newSQLiteFixture(t)) })
}

func testConcurrentVotesWithSameKey(t *testing.T, f *fixture) {
	ctx := context.Background()
	keys, candidates := f.prepare(t, true, "Alice", "Bob")

	token := f.redeem(t, keys[0])
	const attempts = 20

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := f.votes.CastVote(ctx, ports.CastVoteInput{
				Token:       token,
				CandidateID: candidates[i%2].ID.String(),
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), conflicts.Load())

	stats, err := f.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalVotes)
	assert.Equal(t, 1, stats.UsedKeys)
	assert.Equal(t, int64(1), stats.Candidates[0].Votes+stats.Candidates[1].Votes)
	assert.Equal(t, int64(1), stats.CurrentSession.TotalVotes)
}

func TestConcurrentVotesWithDistinctKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, candidates := f.prepare(t, true, "Alice", "Bob", "Carol")

	tokens := make([]string, len(keys))
	for i, key := range keys {
		tokens[i] = f.redeem(t, key)
	}

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			err := f.votes.CastVote(ctx, ports.CastVoteInput{
				Token:       token,
				CandidateID: candidates[i%3].ID.String(),
			})
			assert.NoError(t, err)
		}(i, token)
	}
	wg.Wait()

	report, err := f.reconcile.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, domain.KeyBatchSize, report.LedgerVotes)
	assert.Equal(t, int64(domain.KeyBatchSize), report.TallySum)
	assert.Equal(t, int64(domain.KeyBatchSize), report.SessionTotal)
	assert.Equal(t, domain.KeyBatchSize, report.SessionLedger)
}

func TestResultsOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results, err := f.votes.Results(ctx)
	require.NoError(t, err)
	assert.Empty(t, results.Candidates)
	require.NotNil(t, results.Session)
	assert.False(t, results.Session.IsActive)
	assert.Zero(t, results.Session.TotalVotes)

	keys, candidates := f.prepare(t, true, "Alice", "Bob", "Carol")
	f.vote(t, keys[0], candidates[2])
	f.vote(t, keys[1], candidates[2])
	f.vote(t, keys[2], candidates[1])

	results, err = f.votes.Results(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, c := range results.Candidates {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Carol", "Bob", "Alice"}, names)
	assert.True(t, results.Session.IsActive)
	assert.Equal(t, int64(3), results.Session.TotalVotes)
}
