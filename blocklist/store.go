package blocklist

import (
	"context"
	"time"

	"github.com/arenalab/ipsentinel/models"
)

// Store is the pluggable backend for block records and rolling failure
// counters. MemoryStore serves single-instance deployments; RedisStore shares
// state across instances. Implementations must treat a block whose expiry has
// passed as absent on every read (lazy expiry); physical deletion may be
// deferred to Sweep.
type Store interface {
	// IncrementFailures adds one failure for ip and returns the count of
	// failures within the rolling window.
	IncrementFailures(ctx context.Context, ip string, window time.Duration) (int, error)

	// FailureCount returns the current failure count for ip without
	// recording anything.
	FailureCount(ctx context.Context, ip string) (int, error)

	// ResetFailures clears the failure counter for ip. Existing blocks are
	// unaffected.
	ResetFailures(ctx context.Context, ip string) error

	// GetBlock returns the active block for ip, or models.ErrNotFound if
	// there is none (including expired blocks).
	GetBlock(ctx context.Context, ip string) (*models.BlockRecord, error)

	// PutBlock stores a block record, replacing any existing one for the IP.
	PutBlock(ctx context.Context, record *models.BlockRecord) error

	// DeleteBlock removes the block for ip, reporting whether an active
	// block existed.
	DeleteBlock(ctx context.Context, ip string) (bool, error)

	// ListBlocks returns all currently active (unexpired) blocks.
	ListBlocks(ctx context.Context) ([]*models.BlockRecord, error)

	// Sweep physically removes expired blocks and stale counters, returning
	// the number of entries removed. Correctness never depends on it.
	Sweep(ctx context.Context) (int, error)
}
