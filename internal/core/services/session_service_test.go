package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.sessions.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsActive)

	_, err = f.sessions.Stop(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	first, err := f.sessions.Start(ctx)
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Nil(t, first.EndTime)

	second, err := f.sessions.Start(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	status, err = f.sessions.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsActive)
	assert.Equal(t, second.ID, status.Session.ID)

	stopped, err := f.sessions.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, stopped.ID)
	assert.False(t, stopped.IsActive)
	require.NotNil(t, stopped.EndTime)

	active, err := f.store.Sessions().GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestStartingSessionsLeavesOneActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.sessions.Start(ctx)
		require.NoError(t, err)
	}

	// Count active sessions by closing them in a unit of work that is
	// rolled back.
	errRollback := errors.New("rollback")
	var active int
	err := f.store.Atomic(ctx, func(tx ports.Store) error {
		n, err := tx.Sessions().DeactivateAll(ctx, time.Now())
		if err != nil {
			return err
		}
		active = n
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
	assert.Equal(t, 1, active)

	status, err := f.sessions.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsActive)
}

func TestStartOpensWindowAfterVotesCommittedBeforeIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keys, candidates := f.prepare(t, true, "Alice")

	previous, err := f.store.Sessions().GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, previous)

	// The vote commits after Start was called but before its unit of work
	// begins, so it belongs to the session being closed.
	store := &hookedStore{
		Store:        f.store,
		beforeAtomic: func() { f.vote(t, keys[0], candidates[0]) },
	}
	next, err := services.NewSessionService(store).Start(ctx)
	require.NoError(t, err)

	report, err := f.reconcile.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Zero(t, report.SessionTotal)
	assert.Zero(t, report.SessionLedger)

	n, err := f.store.Votes().CountBetween(ctx, previous.StartTime, &next.StartTime)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
