package models

import "time"

// FailureCheck is the verdict of one failure-rate evaluation. FailureCount is
// always populated so callers can watch the trend approach the threshold even
// when no anomaly fires.
type FailureCheck struct {
	Anomaly      bool     `json:"is_anomaly"`
	FailureCount int      `json:"failure_count"`
	NewlyLocked  []string `json:"locked_operators"`
}

// KeyChurnCheck is the verdict of one API-key-switching evaluation.
type KeyChurnCheck struct {
	Anomaly        bool     `json:"is_anomaly"`
	UniqueKeyCount int      `json:"unique_key_count"`
	NewlyLocked    []string `json:"locked_operators"`
}

// LoginFailureResult reports the outcome of recording one failed login
// against the IP block list. Duration is only set on the call that triggered
// an automatic block.
type LoginFailureResult struct {
	Blocked           bool          `json:"blocked"`
	FailureCount      int           `json:"failure_count"`
	RemainingAttempts int           `json:"remaining_attempts"`
	Reason            BlockReason   `json:"reason,omitempty"`
	Duration          time.Duration `json:"duration,omitempty"`
}

// IPStatistics is an administrative snapshot of everything the engine
// currently tracks for one IP.
type IPStatistics struct {
	IP                   string   `json:"ip"`
	FailuresInWindow     int      `json:"failures_in_window"`
	DistinctKeysInWindow int      `json:"distinct_keys_in_window"`
	AssociatedIdentities []string `json:"associated_identities"`
}
