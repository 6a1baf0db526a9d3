package providers

import "fmt"

// ScoreConvention fixes which direction of a face-match score counts as
// "better". Similarity providers (cosine) report higher-is-better;
// distance-metric providers (LBPH and friends) report lower-is-better.
// The engine never guesses: the convention is configured alongside the
// tolerance and applied through this adapter.
type ScoreConvention string

const (
	// ConventionHigher accepts scores at or above the tolerance.
	ConventionHigher ScoreConvention = "higher"
	// ConventionDistance accepts scores at or below the tolerance.
	ConventionDistance ScoreConvention = "distance"
)

// ParseConvention validates a configured convention string.
func ParseConvention(s string) (ScoreConvention, error) {
	switch ScoreConvention(s) {
	case ConventionHigher, ConventionDistance:
		return ScoreConvention(s), nil
	default:
		return "", fmt.Errorf("unknown score convention %q", s)
	}
}

// Accepts reports whether score clears the tolerance under this convention.
func (c ScoreConvention) Accepts(score, tolerance float64) bool {
	if c == ConventionDistance {
		return score <= tolerance
	}
	return score >= tolerance
}
