// Package tracker maintains bounded, auto-expiring per-IP event histories:
// failed authentication attempts, API-key fingerprint usage, and the set of
// identities observed behind each IP.
package tracker

import (
	"sort"
	"sync"

	"github.com/arenalab/ipsentinel/config"
	"github.com/arenalab/ipsentinel/models"
	"github.com/arenalab/ipsentinel/window"
)

// ActivityTracker tracks per-IP activity. All operations on one IP are
// serialized by a per-IP mutex; two different IPs never contend. Safe for
// concurrent use.
type ActivityTracker struct {
	policy config.Policy

	mu  sync.Mutex // guards ips
	ips map[string]*ipActivity
}

type ipActivity struct {
	mu         sync.Mutex
	failures   *window.EventWindow
	keys       *window.FingerprintWindow
	identities map[string]struct{}
}

// New creates an ActivityTracker with the given policy.
func New(policy config.Policy) *ActivityTracker {
	return &ActivityTracker{
		policy: policy,
		ips:    make(map[string]*ipActivity),
	}
}

// RecordFailure appends a failed-auth event for ip, associates identity (if
// non-empty), and returns the post-purge failure count in the window.
func (t *ActivityTracker) RecordFailure(ip, identity string) int {
	a := t.activity(ip)
	a.mu.Lock()
	defer a.mu.Unlock()

	if identity != "" {
		a.identities[identity] = struct{}{}
	}
	return a.failures.Record()
}

// RecordKeyUsage stores a fingerprint of apiKey for ip, associates identity
// (if non-empty), and returns the count of distinct fingerprints currently in
// the window.
func (t *ActivityTracker) RecordKeyUsage(ip, apiKey, identity string) int {
	a := t.activity(ip)
	a.mu.Lock()
	defer a.mu.Unlock()

	if identity != "" {
		a.identities[identity] = struct{}{}
	}
	return a.keys.Record(t.fingerprint(apiKey))
}

// FailureCount returns the number of failures currently in ip's window.
func (t *ActivityTracker) FailureCount(ip string) int {
	a := t.activity(ip)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failures.Count()
}

// DistinctKeyCount returns the number of distinct API-key fingerprints
// currently in ip's window.
func (t *ActivityTracker) DistinctKeyCount(ip string) int {
	a := t.activity(ip)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys.Distinct()
}

// AssociatedIdentities returns every identity ever linked to ip, sorted.
// Identity associations are not windowed; they accumulate until Clear.
func (t *ActivityTracker) AssociatedIdentities(ip string) []string {
	a := t.activity(ip)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identityList()
}

// Snapshot returns an administrative view of everything tracked for ip.
func (t *ActivityTracker) Snapshot(ip string) models.IPStatistics {
	a := t.activity(ip)
	a.mu.Lock()
	defer a.mu.Unlock()

	return models.IPStatistics{
		IP:                   ip,
		FailuresInWindow:     a.failures.Count(),
		DistinctKeysInWindow: a.keys.Distinct(),
		AssociatedIdentities: a.identityList(),
	}
}

// Clear removes all failure history, key-usage history, and identity
// associations for ip.
func (t *ActivityTracker) Clear(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ips, ip)
}

// activity returns the state for ip, creating it on first sight.
func (t *ActivityTracker) activity(ip string) *ipActivity {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.ips[ip]
	if !ok {
		a = &ipActivity{
			failures:   window.NewEventWindow(t.policy.FailureWindow),
			keys:       window.NewFingerprintWindow(t.policy.KeyChurnWindow),
			identities: make(map[string]struct{}),
		}
		t.ips[ip] = a
	}
	return a
}

// fingerprint truncates an API key to its leading characters. Full keys are
// never retained.
func (t *ActivityTracker) fingerprint(apiKey string) string {
	if len(apiKey) > t.policy.FingerprintLength {
		return apiKey[:t.policy.FingerprintLength]
	}
	return apiKey
}

func (a *ipActivity) identityList() []string {
	ids := make([]string, 0, len(a.identities))
	for id := range a.identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
