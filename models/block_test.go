package models

import (
	"testing"
	"time"
)

func TestBlockRecordExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		expected  bool
	}{
		{name: "no expiry", expiresAt: nil, expected: false},
		{name: "future expiry", expiresAt: &future, expected: false},
		{name: "past expiry", expiresAt: &past, expected: true},
		{name: "exactly now", expiresAt: &now, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := BlockRecord{IP: "203.0.113.1", ExpiresAt: tt.expiresAt}
			if result := rec.Expired(now); result != tt.expected {
				t.Errorf("Expired() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestBlockRecordRemaining(t *testing.T) {
	now := time.Now()

	future := now.Add(90 * time.Second)
	rec := BlockRecord{IP: "203.0.113.1", ExpiresAt: &future}
	if got := rec.Remaining(now); got != 90*time.Second {
		t.Errorf("Remaining() = %v, want 90s", got)
	}

	rec = BlockRecord{IP: "203.0.113.1"}
	if got := rec.Remaining(now); got != 0 {
		t.Errorf("Remaining() with no expiry = %v, want 0", got)
	}

	past := now.Add(-time.Second)
	rec = BlockRecord{IP: "203.0.113.1", ExpiresAt: &past}
	if got := rec.Remaining(now); got != 0 {
		t.Errorf("Remaining() expired = %v, want 0", got)
	}
}
