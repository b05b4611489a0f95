package models

import "time"

// BlockReason categorizes why an IP was blocked.
type BlockReason string

const (
	BlockReasonBruteForce BlockReason = "brute_force"
	BlockReasonManual     BlockReason = "manual_block"
	BlockReasonAnomaly    BlockReason = "anomaly"
)

// BlockRecord is a time-bounded denial of all activity from an IP.
// A nil ExpiresAt means the block does not expire on its own.
type BlockRecord struct {
	IP          string      `json:"ip"`
	Reason      BlockReason `json:"reason"`
	BlockedAt   time.Time   `json:"blocked_at"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	AutoBlocked bool        `json:"auto_blocked"`
	AdminID     *string     `json:"admin_id,omitempty"`
}

// Expired reports whether the block has lapsed as of now. Expired blocks are
// treated as absent on every read path; physical deletion is lazy.
func (b *BlockRecord) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

// Remaining returns the time left on the block, or zero if it has expired or
// never expires.
func (b *BlockRecord) Remaining(now time.Time) time.Duration {
	if b.ExpiresAt == nil || b.Expired(now) {
		return 0
	}
	return b.ExpiresAt.Sub(now)
}

// BlockStatus is the read-side answer to "is this IP blocked right now".
type BlockStatus struct {
	Blocked          bool        `json:"blocked"`
	Reason           BlockReason `json:"reason,omitempty"`
	RemainingSeconds int         `json:"remaining_seconds,omitempty"`
}
