package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalab/ipsentinel/models"
	"github.com/arenalab/ipsentinel/postgres"
)

func TestAccountStore_LockLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer db.Teardown(ctx)

	store := postgres.NewAccountStore(db.Pool)

	acct, err := store.CreateAccount(ctx, "operator-42")
	require.NoError(t, err)
	assert.False(t, acct.IsLocked)
	assert.NotEmpty(t, acct.ID)

	// First lock transitions; second is an idempotent no-op.
	now := time.Now().UTC()
	locked, err := store.SetLocked(ctx, "operator-42", models.LockReasonFailureRate, now)
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = store.SetLocked(ctx, "operator-42", models.LockReasonFailureRate, now)
	require.NoError(t, err)
	assert.False(t, locked)

	acct, err = store.FindAccount(ctx, "operator-42")
	require.NoError(t, err)
	assert.True(t, acct.IsLocked)
	assert.Equal(t, models.LockReasonFailureRate, acct.LockedReason)
	require.NotNil(t, acct.LockedAt)

	// Unlock, then a second unlock reports nothing to do.
	cleared, err := store.ClearLocked(ctx, "operator-42")
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = store.ClearLocked(ctx, "operator-42")
	require.NoError(t, err)
	assert.False(t, cleared)

	acct, err = store.FindAccount(ctx, "operator-42")
	require.NoError(t, err)
	assert.False(t, acct.IsLocked)
	assert.Empty(t, acct.LockedReason)
	assert.Nil(t, acct.LockedAt)
}

func TestAccountStore_UnknownIdentity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer db.Teardown(ctx)

	store := postgres.NewAccountStore(db.Pool)

	_, err = store.FindAccount(ctx, "operator-ghost")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	locked, err := store.SetLocked(ctx, "operator-ghost", models.LockReasonManual, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, locked)

	cleared, err := store.ClearLocked(ctx, "operator-ghost")
	require.NoError(t, err)
	assert.False(t, cleared)
}
