package models

import (
	"testing"
)

func TestLevelFor(t *testing.T) {
	bands := []ReputationBand{
		{MinFailures: 0, Level: ReputationTrusted},
		{MinFailures: 1, Level: ReputationNormal},
		{MinFailures: 3, Level: ReputationSuspicious},
	}

	tests := []struct {
		name     string
		failures int
		expected ReputationLevel
	}{
		{name: "no failures", failures: 0, expected: ReputationTrusted},
		{name: "one failure", failures: 1, expected: ReputationNormal},
		{name: "two failures", failures: 2, expected: ReputationNormal},
		{name: "three failures", failures: 3, expected: ReputationSuspicious},
		{name: "many failures", failures: 100, expected: ReputationSuspicious},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LevelFor(bands, tt.failures)
			if result != tt.expected {
				t.Errorf("LevelFor(bands, %d) = %v, want %v", tt.failures, result, tt.expected)
			}
		})
	}
}

func TestLevelFor_NoBands(t *testing.T) {
	if result := LevelFor(nil, 10); result != ReputationTrusted {
		t.Errorf("LevelFor(nil, 10) = %v, want trusted", result)
	}
}
