package blocklist_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalab/ipsentinel/blocklist"
	"github.com/arenalab/ipsentinel/config"
	"github.com/arenalab/ipsentinel/models"
)

func newTestBlockList(policy config.Policy) *blocklist.BlockList {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return blocklist.NewBlockList(blocklist.NewMemoryStore(), policy, logger)
}

func TestRecordLoginFailure_BlocksAtThreshold(t *testing.T) {
	policy := config.DefaultPolicy()
	b := newTestBlockList(policy)
	ctx := context.Background()

	for i := 1; i < policy.BruteForceThreshold; i++ {
		result, err := b.RecordLoginFailure(ctx, "198.51.100.7", "operator-a", "operator")
		require.NoError(t, err)
		assert.False(t, result.Blocked)
		assert.Equal(t, i, result.FailureCount)
		assert.Equal(t, policy.BruteForceThreshold-i, result.RemainingAttempts)
	}

	// The 5th failure triggers the auto block and returns its metadata.
	result, err := b.RecordLoginFailure(ctx, "198.51.100.7", "operator-a", "operator")
	require.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.Equal(t, policy.BruteForceThreshold, result.FailureCount)
	assert.Equal(t, 0, result.RemainingAttempts)
	assert.Equal(t, models.BlockReasonBruteForce, result.Reason)
	assert.Equal(t, policy.AutoBlockDuration, result.Duration)

	status, err := b.CheckIPBlocked(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, status.Blocked)
	assert.Equal(t, models.BlockReasonBruteForce, status.Reason)
	assert.Greater(t, status.RemainingSeconds, 0)
}

func TestRecordLoginFailure_ExistingBlockReported(t *testing.T) {
	policy := config.DefaultPolicy()
	b := newTestBlockList(policy)
	ctx := context.Background()

	for i := 0; i < policy.BruteForceThreshold; i++ {
		_, err := b.RecordLoginFailure(ctx, "198.51.100.7", "operator-a", "operator")
		require.NoError(t, err)
	}

	result, err := b.RecordLoginFailure(ctx, "198.51.100.7", "operator-a", "operator")
	require.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.Equal(t, models.BlockReasonBruteForce, result.Reason)
	// Not the triggering call: no duration on the result.
	assert.Zero(t, result.Duration)
}

func TestRecordLoginSuccess_ResetsCounterButNotBlocks(t *testing.T) {
	policy := config.DefaultPolicy()
	b := newTestBlockList(policy)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.RecordLoginFailure(ctx, "198.51.100.8", "operator-b", "operator")
		require.NoError(t, err)
	}

	require.NoError(t, b.RecordLoginSuccess(ctx, "198.51.100.8"))

	rep, err := b.Reputation(ctx, "198.51.100.8")
	require.NoError(t, err)
	assert.Equal(t, 0, rep.FailureCount)

	// A success never lifts a block that was already issued.
	for i := 0; i < policy.BruteForceThreshold; i++ {
		_, err := b.RecordLoginFailure(ctx, "198.51.100.9", "operator-c", "operator")
		require.NoError(t, err)
	}
	require.NoError(t, b.RecordLoginSuccess(ctx, "198.51.100.9"))

	status, err := b.CheckIPBlocked(ctx, "198.51.100.9")
	require.NoError(t, err)
	assert.True(t, status.Blocked)
}

func TestCheckIPBlocked_LazyExpiry(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.AutoBlockDuration = 40 * time.Millisecond
	b := newTestBlockList(policy)
	ctx := context.Background()

	for i := 0; i < policy.BruteForceThreshold; i++ {
		_, err := b.RecordLoginFailure(ctx, "198.51.100.10", "operator-d", "operator")
		require.NoError(t, err)
	}

	status, err := b.CheckIPBlocked(ctx, "198.51.100.10")
	require.NoError(t, err)
	assert.True(t, status.Blocked)

	time.Sleep(60 * time.Millisecond)

	// Expired blocks read as unblocked without any cleanup pass.
	status, err = b.CheckIPBlocked(ctx, "198.51.100.10")
	require.NoError(t, err)
	assert.False(t, status.Blocked)
}

func TestBlockManually_NoDefaultExpiry(t *testing.T) {
	b := newTestBlockList(config.DefaultPolicy())
	ctx := context.Background()

	blocked, err := b.BlockManually(ctx, "198.51.100.11", models.BlockReasonManual, nil, nil)
	require.NoError(t, err)
	assert.True(t, blocked)

	status, err := b.CheckIPBlocked(ctx, "198.51.100.11")
	require.NoError(t, err)
	assert.True(t, status.Blocked)
	assert.Equal(t, models.BlockReasonManual, status.Reason)
	assert.Equal(t, 0, status.RemainingSeconds)

	// Re-blocking an actively blocked IP is a no-op.
	blocked, err = b.BlockManually(ctx, "198.51.100.11", models.BlockReasonManual, nil, nil)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockManually_WithDurationAndAdmin(t *testing.T) {
	b := newTestBlockList(config.DefaultPolicy())
	ctx := context.Background()

	adminID := uuid.New()
	duration := 40 * time.Millisecond
	blocked, err := b.BlockManually(ctx, "198.51.100.12", models.BlockReasonManual, &adminID, &duration)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocks, err := b.BlockedIPs(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].AdminID)
	assert.Equal(t, adminID.String(), *blocks[0].AdminID)
	assert.False(t, blocks[0].AutoBlocked)

	time.Sleep(60 * time.Millisecond)

	status, err := b.CheckIPBlocked(ctx, "198.51.100.12")
	require.NoError(t, err)
	assert.False(t, status.Blocked)
}

func TestUnblock(t *testing.T) {
	b := newTestBlockList(config.DefaultPolicy())
	ctx := context.Background()

	_, err := b.BlockManually(ctx, "198.51.100.13", models.BlockReasonManual, nil, nil)
	require.NoError(t, err)

	adminID := uuid.New()
	removed, err := b.Unblock(ctx, "198.51.100.13", &adminID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = b.Unblock(ctx, "198.51.100.13", &adminID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUnblock_NeverBlockedIP(t *testing.T) {
	b := newTestBlockList(config.DefaultPolicy())

	removed, err := b.Unblock(context.Background(), "198.51.100.14", nil)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestReputation_Bands(t *testing.T) {
	b := newTestBlockList(config.DefaultPolicy())
	ctx := context.Background()

	rep, err := b.Reputation(ctx, "198.51.100.15")
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Score)
	assert.Equal(t, models.ReputationTrusted, rep.Level)

	_, err = b.RecordLoginFailure(ctx, "198.51.100.15", "operator-e", "operator")
	require.NoError(t, err)

	rep, err = b.Reputation(ctx, "198.51.100.15")
	require.NoError(t, err)
	assert.Equal(t, 10, rep.Score)
	assert.Equal(t, models.ReputationNormal, rep.Level)

	for i := 0; i < 2; i++ {
		_, err = b.RecordLoginFailure(ctx, "198.51.100.15", "operator-e", "operator")
		require.NoError(t, err)
	}

	rep, err = b.Reputation(ctx, "198.51.100.15")
	require.NoError(t, err)
	assert.Equal(t, 30, rep.Score)
	assert.Equal(t, models.ReputationSuspicious, rep.Level)
	assert.Equal(t, 3, rep.FailureCount)
}

func TestBlockedIPs_FiltersExpired(t *testing.T) {
	b := newTestBlockList(config.DefaultPolicy())
	ctx := context.Background()

	short := 40 * time.Millisecond
	_, err := b.BlockManually(ctx, "198.51.100.16", models.BlockReasonManual, nil, &short)
	require.NoError(t, err)
	_, err = b.BlockManually(ctx, "198.51.100.17", models.BlockReasonManual, nil, nil)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	blocks, err := b.BlockedIPs(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "198.51.100.17", blocks[0].IP)
}
