// Package monitor implements the IP anomaly detection and account-lockout
// engine: failure-rate and API-key-churn rules evaluated over per-IP sliding
// windows, with automatic, idempotent lockout of implicated accounts.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/arenalab/ipsentinel/config"
	"github.com/arenalab/ipsentinel/models"
	"github.com/arenalab/ipsentinel/pkg/logger"
	"github.com/arenalab/ipsentinel/tracker"
)

// AccountStore is the engine's narrow contract with the platform's account
// store. Lock transitions must be idempotent: SetLocked returns false without
// error when the account is already locked (or unknown), ClearLocked returns
// false when it is not locked or not found.
type AccountStore interface {
	FindAccount(ctx context.Context, identity string) (*models.Account, error)
	SetLocked(ctx context.Context, identity, reason string, at time.Time) (bool, error)
	ClearLocked(ctx context.Context, identity string) (bool, error)
}

// Monitor evaluates anomaly rules on every recorded event and locks the
// accounts implicated by an anomalous IP. Safe for concurrent use; state is
// process-local (a multi-instance deployment needs the blocklist's shared
// store for cross-instance decisions).
type Monitor struct {
	tracker  *tracker.ActivityTracker
	accounts AccountStore
	policy   config.Policy
	logger   *slog.Logger
	security *logger.SecurityLogger
}

// NewMonitor creates a Monitor owning its own activity tracker.
func NewMonitor(accounts AccountStore, policy config.Policy, log *slog.Logger) *Monitor {
	return &Monitor{
		tracker:  tracker.New(policy),
		accounts: accounts,
		policy:   policy,
		logger:   log,
		security: logger.NewSecurityLogger(log),
	}
}

// CheckFailureRate records one failed authentication attempt from ip
// (associating identity, if known) and evaluates the failure-rate rule.
//
// The verdict is always returned, even when persisting locks fails; in that
// case err wraps models.ErrLockPersistence and NewlyLocked holds only the
// accounts whose lock was persisted.
func (m *Monitor) CheckFailureRate(ctx context.Context, ip, identity string) (*models.FailureCheck, error) {
	count := m.tracker.RecordFailure(ip, identity)

	result := &models.FailureCheck{FailureCount: count}
	if count <= m.policy.FailureThreshold {
		return result, nil
	}

	result.Anomaly = true
	m.security.LogEvent(logger.SecurityEvent{
		EventType: "anomaly_detected",
		IPAddress: ip,
		Identity:  identity,
		Reason:    models.LockReasonFailureRate,
		Metadata:  map[string]string{"failure_count": strconv.Itoa(count)},
	})

	newlyLocked, err := m.lockAssociated(ctx, ip, models.LockReasonFailureRate)
	result.NewlyLocked = newlyLocked
	return result, err
}

// CheckAPIKeySwitching records one API-key presentation from ip (associating
// identity, if known) and evaluates the key-churn rule. Partial-failure
// semantics match CheckFailureRate.
func (m *Monitor) CheckAPIKeySwitching(ctx context.Context, ip, apiKey, identity string) (*models.KeyChurnCheck, error) {
	count := m.tracker.RecordKeyUsage(ip, apiKey, identity)

	result := &models.KeyChurnCheck{UniqueKeyCount: count}
	if count <= m.policy.KeyChurnThreshold {
		return result, nil
	}

	result.Anomaly = true
	m.security.LogEvent(logger.SecurityEvent{
		EventType: "anomaly_detected",
		IPAddress: ip,
		Identity:  identity,
		Reason:    models.LockReasonKeySwitching,
		Metadata:  map[string]string{"unique_key_count": strconv.Itoa(count)},
	})

	newlyLocked, err := m.lockAssociated(ctx, ip, models.LockReasonKeySwitching)
	result.NewlyLocked = newlyLocked
	return result, err
}

// Lock sets the lock fields on an account. Returns false without error if the
// account is already locked or unknown.
func (m *Monitor) Lock(ctx context.Context, identity, reason string) (bool, error) {
	locked, err := m.accounts.SetLocked(ctx, identity, reason, time.Now().UTC())
	if err != nil {
		m.logger.Error("failed to lock account",
			slog.String("identity", identity),
			slog.Any("error", err))
		return false, err
	}

	if locked {
		m.security.LogEvent(logger.SecurityEvent{
			EventType: "account_locked",
			Identity:  identity,
			Reason:    reason,
		})
	}
	return locked, nil
}

// Unlock clears the lock fields on an account. Returns false without error if
// the account was not found or was not locked.
func (m *Monitor) Unlock(ctx context.Context, identity string) (bool, error) {
	cleared, err := m.accounts.ClearLocked(ctx, identity)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		m.logger.Error("failed to unlock account",
			slog.String("identity", identity),
			slog.Any("error", err))
		return false, err
	}

	if cleared {
		m.security.LogEvent(logger.SecurityEvent{
			EventType: "account_unlocked",
			Identity:  identity,
		})
	}
	return cleared, nil
}

// ClearIPTracking removes all tracked state for ip. Administrative reset.
func (m *Monitor) ClearIPTracking(ip string) {
	m.tracker.Clear(ip)
	m.logger.Info("ip tracking cleared", slog.String("ip_address", ip))
}

// IPStatistics returns the current tracked state for ip.
func (m *Monitor) IPStatistics(ip string) models.IPStatistics {
	return m.tracker.Snapshot(ip)
}

// lockAssociated locks every identity associated with ip that is not already
// locked and returns the identities newly locked by this call. Store writes
// happen outside the tracker's per-IP critical section; SetLocked's
// idempotency resolves races between concurrent anomalous calls.
func (m *Monitor) lockAssociated(ctx context.Context, ip, reason string) ([]string, error) {
	identities := m.tracker.AssociatedIdentities(ip)

	newlyLocked := make([]string, 0, len(identities))
	var errs []error
	now := time.Now().UTC()

	for _, identity := range identities {
		locked, err := m.accounts.SetLocked(ctx, identity, reason, now)
		if err != nil {
			m.security.LogPartialFailure(logger.SecurityEvent{
				EventType: "account_locked",
				IPAddress: ip,
				Identity:  identity,
			}, err)
			errs = append(errs, err)
			continue
		}
		if locked {
			m.security.LogEvent(logger.SecurityEvent{
				EventType: "account_locked",
				IPAddress: ip,
				Identity:  identity,
				Reason:    reason,
			})
			newlyLocked = append(newlyLocked, identity)
		}
	}

	if len(errs) > 0 {
		return newlyLocked, errors.Join(append([]error{models.ErrLockPersistence}, errs...)...)
	}
	return newlyLocked, nil
}
