package models

// ReputationLevel classifies an IP's derived risk.
type ReputationLevel string

const (
	ReputationTrusted    ReputationLevel = "trusted"
	ReputationNormal     ReputationLevel = "normal"
	ReputationSuspicious ReputationLevel = "suspicious"
)

// Reputation is computed on demand from an IP's recent failure history; it is
// never stored.
type Reputation struct {
	Score        int             `json:"score"`
	Level        ReputationLevel `json:"level"`
	FailureCount int             `json:"failure_count"`
}

// ReputationBand maps a minimum failure count to a level. Bands are policy
// data so the cut lines can be tuned without touching scoring logic.
type ReputationBand struct {
	MinFailures int
	Level       ReputationLevel
}

// LevelFor returns the level of the highest band whose MinFailures is not
// greater than failures. Bands must be sorted ascending by MinFailures.
func LevelFor(bands []ReputationBand, failures int) ReputationLevel {
	level := ReputationTrusted
	for _, b := range bands {
		if failures >= b.MinFailures {
			level = b.Level
		}
	}
	return level
}
