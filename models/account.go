package models

import "time"

// Account is the engine's view of an operator account. The full account
// entity lives in the platform's account store; the engine only reads and
// writes the lock fields.
type Account struct {
	ID           string
	Identity     string // login identity (operator code or email)
	IsLocked     bool
	LockedReason string
	LockedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Lock reasons written to the account store.
const (
	LockReasonFailureRate  = "failure_rate_anomaly"
	LockReasonKeySwitching = "api_key_switching_anomaly"
	LockReasonManual       = "manual_lock"
)
