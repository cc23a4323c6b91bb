package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

func TestReconcileConsistentStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.reconcile.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Empty(t, report.Mismatches)

	keys, candidates := f.prepare(t, true, "Alice", "Bob")
	f.vote(t, keys[0], candidates[0])
	f.vote(t, keys[1], candidates[1])
	f.vote(t, keys[2], candidates[1])

	report, err = f.reconcile.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, 3, report.LedgerVotes)
	assert.Equal(t, int64(3), report.TallySum)
	assert.Equal(t, 3, report.UsedKeys)
	assert.Equal(t, int64(3), report.SessionTotal)
	assert.Equal(t, 3, report.SessionLedger)
	assert.False(t, report.Repaired)
}

func TestReconcileRepairsTallies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, candidates := f.prepare(t, true, "Alice", "Bob")
	f.vote(t, keys[0], candidates[0])
	f.vote(t, keys[1], candidates[0])

	require.NoError(t, f.store.Candidates().SetVotes(ctx, candidates[0].ID, 5))
	require.NoError(t, f.store.Candidates().SetVotes(ctx, candidates[1].ID, 1))

	report, err := f.reconcile.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	require.Len(t, report.Mismatches, 2)
	assert.Equal(t, int64(5), report.Mismatches[0].Tally)
	assert.Equal(t, int64(2), report.Mismatches[0].Ledger)

	report, err = f.reconcile.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.Repaired)

	alice, err := f.candidates.GetCandidate(ctx, candidates[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), alice.Votes)
	bob, err := f.candidates.GetCandidate(ctx, candidates[1].ID.String())
	require.NoError(t, err)
	assert.Zero(t, bob.Votes)

	report, err = f.reconcile.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestReconcileReportsOrphanedVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, candidates := f.prepare(t, true, "Alice")
	f.vote(t, keys[0], candidates[0])

	f.prepare(t, false, "Bob")

	report, err := f.reconcile.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.OrphanLedgerVotes)
	assert.Zero(t, report.UsedKeys)
	assert.True(t, report.Consistent())
}

func TestReconcileRepairKeepsVotesCastMeanwhile(t *testing.T) {
	for name, newF := range map[string]func(*testing.T) *fixture{
		"jsonfile": newFixture,
		"sqlite":   newSQLiteFixture,
	} {
		t.Run(name, func(t *testing.T) {
			f := newF(t)
			ctx := context.Background()
			keys, candidates := f.prepare(t, true, "Alice", "Bob")
			f.vote(t, keys[0], candidates[0])
			require.NoError(t, f.store.Candidates().SetVotes(ctx, candidates[1].ID, 5))

			// Bob receives a real vote after the ledger was read but before
			// the repair runs.
			store := &hookedStore{
				Store: f.store,
				votes: &castBeforeWindowCount{
					VoteRepository: f.store.Votes(),
					cast:           func() { f.vote(t, keys[1], candidates[1]) },
				},
			}

			report, err := services.NewReconcileService(store).Reconcile(ctx, true)
			require.NoError(t, err)
			assert.True(t, report.Repaired)
			require.Len(t, report.Mismatches, 1)
			assert.Equal(t, int64(6), report.Mismatches[0].Tally)
			assert.Equal(t, int64(1), report.Mismatches[0].Ledger)

			bob, err := f.candidates.GetCandidate(ctx, candidates[1].ID.String())
			require.NoError(t, err)
			assert.Equal(t, int64(1), bob.Votes)

			report, err = f.reconcile.Reconcile(ctx, false)
			require.NoError(t, err)
			assert.True(t, report.Consistent())
			assert.Equal(t, 2, report.LedgerVotes)
			assert.Equal(t, int64(2), report.TallySum)
		})
	}
}
