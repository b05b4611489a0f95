package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/arenalab/ipsentinel/models"
)

// Policy holds every tunable constant of the anomaly engine. The defaults
// mirror production settings; all values can be overridden from the
// environment via Load.
type Policy struct {
	// Failure-rate rule: an anomaly fires when the post-record failure count
	// exceeds FailureThreshold within FailureWindow.
	FailureThreshold int           `validate:"gt=0"`
	FailureWindow    time.Duration `validate:"gt=0"`

	// Key-churn rule: an anomaly fires when the number of distinct API-key
	// fingerprints exceeds KeyChurnThreshold within KeyChurnWindow.
	KeyChurnThreshold int           `validate:"gt=0"`
	KeyChurnWindow    time.Duration `validate:"gt=0"`

	// FingerprintLength is how many leading characters of an API key form its
	// fingerprint.
	FingerprintLength int `validate:"gt=0"`

	// Brute-force blocking: the BruteForceThreshold-th failure within
	// BruteForceWindow auto-blocks the IP for AutoBlockDuration.
	BruteForceThreshold int           `validate:"gt=0"`
	BruteForceWindow    time.Duration `validate:"gt=0"`
	AutoBlockDuration   time.Duration `validate:"gt=0"`

	// Reputation scoring.
	PointsPerFailure int                     `validate:"gt=0"`
	ReputationBands  []models.ReputationBand `validate:"min=1"`
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		FailureThreshold:    20,
		FailureWindow:       5 * time.Minute,
		KeyChurnThreshold:   5,
		KeyChurnWindow:      1 * time.Minute,
		FingerprintLength:   8,
		BruteForceThreshold: 5,
		BruteForceWindow:    15 * time.Minute,
		AutoBlockDuration:   30 * time.Minute,
		PointsPerFailure:    10,
		ReputationBands: []models.ReputationBand{
			{MinFailures: 0, Level: models.ReputationTrusted},
			{MinFailures: 1, Level: models.ReputationNormal},
			{MinFailures: 3, Level: models.ReputationSuspicious},
		},
	}
}

// Load builds a Policy from the environment on top of the defaults.
func Load() (Policy, error) {
	_ = godotenv.Load()

	p := DefaultPolicy()

	p.FailureThreshold = getEnvAsInt("IPSENTINEL_FAILURE_THRESHOLD", p.FailureThreshold)
	p.FailureWindow = getEnvAsDuration("IPSENTINEL_FAILURE_WINDOW", p.FailureWindow)
	p.KeyChurnThreshold = getEnvAsInt("IPSENTINEL_KEY_CHURN_THRESHOLD", p.KeyChurnThreshold)
	p.KeyChurnWindow = getEnvAsDuration("IPSENTINEL_KEY_CHURN_WINDOW", p.KeyChurnWindow)
	p.FingerprintLength = getEnvAsInt("IPSENTINEL_FINGERPRINT_LENGTH", p.FingerprintLength)
	p.BruteForceThreshold = getEnvAsInt("IPSENTINEL_BRUTE_FORCE_THRESHOLD", p.BruteForceThreshold)
	p.BruteForceWindow = getEnvAsDuration("IPSENTINEL_BRUTE_FORCE_WINDOW", p.BruteForceWindow)
	p.AutoBlockDuration = getEnvAsDuration("IPSENTINEL_AUTO_BLOCK_DURATION", p.AutoBlockDuration)
	p.PointsPerFailure = getEnvAsInt("IPSENTINEL_POINTS_PER_FAILURE", p.PointsPerFailure)

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}

	return p, nil
}

// Validate checks the policy's struct tags and band ordering.
func (p Policy) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	for i := 1; i < len(p.ReputationBands); i++ {
		if p.ReputationBands[i].MinFailures <= p.ReputationBands[i-1].MinFailures {
			return fmt.Errorf("invalid policy: reputation bands must be ascending by min failures")
		}
	}

	return nil
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
