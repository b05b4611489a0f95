package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource already exists")
	ErrBadRequest       = errors.New("bad request")
	ErrStoreUnavailable = errors.New("backing store unavailable")

	// Partial failure: the anomaly verdict was computed but persisting the
	// resulting account locks failed. Callers still receive the verdict.
	ErrLockPersistence = errors.New("failed to persist account lock")
)
