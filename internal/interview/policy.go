package interview

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/ai-interviewer/internal/session"
)

// ScoringPolicy decides how per-answer scores add up to the final score.
type ScoringPolicy string

const (
	// ScoringCapped limits each answer to the cap of its difficulty before summing.
	ScoringCapped ScoringPolicy = "capped"
	// ScoringRaw sums the evaluator scores as they are.
	ScoringRaw ScoringPolicy = "raw"
)

var scoreCaps = map[session.Difficulty]int{
	session.Easy:   5,
	session.Medium: 10,
	session.Hard:   15,
}

var timers = map[session.Difficulty]time.Duration{
	session.Easy:   20 * time.Second,
	session.Medium: 60 * time.Second,
	session.Hard:   120 * time.Second,
}

// ParseScoringPolicy accepts an empty value as the capped policy.
func ParseScoringPolicy(s string) (ScoringPolicy, error) {
	switch ScoringPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScoringCapped:
		return ScoringCapped, nil
	case ScoringRaw:
		return ScoringRaw, nil
	default:
		return "", fmt.Errorf("unknown scoring policy %q (expected %s or %s)", s, ScoringCapped, ScoringRaw)
	}
}

// Cap returns the maximum points a difficulty contributes under the capped policy.
func Cap(d session.Difficulty) int {
	return scoreCaps[d]
}

// Total computes the final score of the evaluated entries. Unanswered entries add nothing.
func (p ScoringPolicy) Total(entries []session.QAEntry) int {
	total := 0
	for _, qa := range entries {
		if qa.Score == nil {
			continue
		}
		score := *qa.Score
		if p != ScoringRaw {
			score = min(score, Cap(qa.Difficulty))
		}
		total += score
	}
	return total
}

// TimerFor returns the answer time limit of a difficulty.
func TimerFor(d session.Difficulty) time.Duration {
	return timers[d]
}

// Fallbacks are the values recorded when a step cannot be evaluated normally.
type Fallbacks struct {
	ScoringFailed    int
	ScoreUnparseable int
	LateAnswer       int
	EmptyAnswer      int
	SummaryFailed    string
}

// DefaultFallbacks scores every failure as zero.
func DefaultFallbacks() Fallbacks {
	return Fallbacks{
		SummaryFailed: "Error generating summary. Please review manually.",
	}
}
