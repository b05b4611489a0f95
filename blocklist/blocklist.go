// Package blocklist implements IP reputation scoring and time-bounded IP
// blocks: automatic brute-force blocking from rolling failure counters,
// manual administrative blocks, and lazy expiry on every read path.
package blocklist

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arenalab/ipsentinel/config"
	"github.com/arenalab/ipsentinel/models"
	"github.com/arenalab/ipsentinel/pkg/logger"
)

// BlockList evaluates login failures against the brute-force policy and
// manages the per-IP block registry. Concurrency safety is delegated to the
// Store backend.
type BlockList struct {
	store    Store
	policy   config.Policy
	logger   *slog.Logger
	security *logger.SecurityLogger
}

// NewBlockList creates a BlockList over the given store.
func NewBlockList(store Store, policy config.Policy, log *slog.Logger) *BlockList {
	return &BlockList{
		store:    store,
		policy:   policy,
		logger:   log,
		security: logger.NewSecurityLogger(log),
	}
}

// RecordLoginFailure increments the rolling failure counter for ip and
// auto-blocks it once the counter reaches the brute-force threshold. The
// result carries the block metadata on the triggering call; on subsequent
// calls it reflects the existing block.
func (b *BlockList) RecordLoginFailure(ctx context.Context, ip, username, userType string) (*models.LoginFailureResult, error) {
	count, err := b.store.IncrementFailures(ctx, ip, b.policy.BruteForceWindow)
	if err != nil {
		return nil, errors.Join(models.ErrStoreUnavailable, err)
	}

	result := &models.LoginFailureResult{
		FailureCount:      count,
		RemainingAttempts: max(0, b.policy.BruteForceThreshold-count),
	}

	existing, err := b.store.GetBlock(ctx, ip)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return result, errors.Join(models.ErrStoreUnavailable, err)
	}
	if existing != nil {
		result.Blocked = true
		result.Reason = existing.Reason
		return result, nil
	}

	if count < b.policy.BruteForceThreshold {
		return result, nil
	}

	now := time.Now().UTC()
	expiresAt := now.Add(b.policy.AutoBlockDuration)
	record := &models.BlockRecord{
		IP:          ip,
		Reason:      models.BlockReasonBruteForce,
		BlockedAt:   now,
		ExpiresAt:   &expiresAt,
		AutoBlocked: true,
	}
	if err := b.store.PutBlock(ctx, record); err != nil {
		// Detection stands even though the block could not be persisted.
		result.Blocked = true
		result.Reason = models.BlockReasonBruteForce
		result.Duration = b.policy.AutoBlockDuration
		b.security.LogPartialFailure(logger.SecurityEvent{
			EventType: "ip_blocked",
			IPAddress: ip,
			Identity:  username,
		}, err)
		return result, errors.Join(models.ErrStoreUnavailable, err)
	}

	result.Blocked = true
	result.Reason = models.BlockReasonBruteForce
	result.Duration = b.policy.AutoBlockDuration

	b.security.LogEvent(logger.SecurityEvent{
		EventType: "ip_blocked",
		IPAddress: ip,
		Identity:  username,
		Reason:    string(models.BlockReasonBruteForce),
		Metadata: map[string]string{
			"user_type":     userType,
			"failure_count": strconv.Itoa(count),
			"duration":      b.policy.AutoBlockDuration.String(),
		},
	})
	return result, nil
}

// RecordLoginSuccess clears the failure counter for ip. An existing block is
// untouched: a success does not retroactively unblock.
func (b *BlockList) RecordLoginSuccess(ctx context.Context, ip string) error {
	if err := b.store.ResetFailures(ctx, ip); err != nil {
		return errors.Join(models.ErrStoreUnavailable, err)
	}
	return nil
}

// CheckIPBlocked reports whether ip is currently blocked. Expired blocks are
// reported as unblocked without requiring a cleanup pass.
func (b *BlockList) CheckIPBlocked(ctx context.Context, ip string) (*models.BlockStatus, error) {
	rec, err := b.store.GetBlock(ctx, ip)
	if errors.Is(err, models.ErrNotFound) {
		return &models.BlockStatus{}, nil
	}
	if err != nil {
		return nil, errors.Join(models.ErrStoreUnavailable, err)
	}

	return &models.BlockStatus{
		Blocked:          true,
		Reason:           rec.Reason,
		RemainingSeconds: int(rec.Remaining(time.Now()).Round(time.Second).Seconds()),
	}, nil
}

// BlockManually places an administrative block on ip. Manual blocks carry no
// expiry unless duration is given. Returns false without error if an active
// block already exists.
func (b *BlockList) BlockManually(ctx context.Context, ip string, reason models.BlockReason, adminID *uuid.UUID, duration *time.Duration) (bool, error) {
	if _, err := b.store.GetBlock(ctx, ip); err == nil {
		return false, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return false, errors.Join(models.ErrStoreUnavailable, err)
	}

	now := time.Now().UTC()
	record := &models.BlockRecord{
		IP:        ip,
		Reason:    reason,
		BlockedAt: now,
	}
	if duration != nil {
		expiresAt := now.Add(*duration)
		record.ExpiresAt = &expiresAt
	}
	if adminID != nil {
		id := adminID.String()
		record.AdminID = &id
	}

	if err := b.store.PutBlock(ctx, record); err != nil {
		return false, errors.Join(models.ErrStoreUnavailable, err)
	}

	b.security.LogEvent(logger.SecurityEvent{
		EventType: "ip_blocked",
		IPAddress: ip,
		Reason:    string(reason),
		Metadata:  adminMetadata(adminID),
	})
	return true, nil
}

// Unblock removes any active block on ip. Returns false without error if no
// active block existed.
func (b *BlockList) Unblock(ctx context.Context, ip string, adminID *uuid.UUID) (bool, error) {
	if _, err := b.store.GetBlock(ctx, ip); errors.Is(err, models.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, errors.Join(models.ErrStoreUnavailable, err)
	}

	removed, err := b.store.DeleteBlock(ctx, ip)
	if err != nil {
		return false, errors.Join(models.ErrStoreUnavailable, err)
	}
	if removed {
		b.security.LogEvent(logger.SecurityEvent{
			EventType: "ip_unblocked",
			IPAddress: ip,
			Metadata:  adminMetadata(adminID),
		})
	}
	return removed, nil
}

// Reputation computes the derived risk score for ip from its failure history
// in the rolling window. Scores are uncapped; levels come from the policy's
// band table.
func (b *BlockList) Reputation(ctx context.Context, ip string) (*models.Reputation, error) {
	count, err := b.store.FailureCount(ctx, ip)
	if err != nil {
		return nil, errors.Join(models.ErrStoreUnavailable, err)
	}

	return &models.Reputation{
		Score:        count * b.policy.PointsPerFailure,
		Level:        models.LevelFor(b.policy.ReputationBands, count),
		FailureCount: count,
	}, nil
}

// BlockedIPs returns all currently active blocks, filtering out expired
// entries at read time.
func (b *BlockList) BlockedIPs(ctx context.Context) ([]*models.BlockRecord, error) {
	blocks, err := b.store.ListBlocks(ctx)
	if err != nil {
		return nil, errors.Join(models.ErrStoreUnavailable, err)
	}
	return blocks, nil
}

func adminMetadata(adminID *uuid.UUID) map[string]string {
	if adminID == nil {
		return nil
	}
	return map[string]string{"admin_id": adminID.String()}
}
