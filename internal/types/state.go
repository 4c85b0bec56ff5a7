package types

import (
	"fmt"
	"strings"
)

// AttemptState tracks one preparation attempt through its lifecycle. An
// attempt starts Idle, moves to Estimating while chain data is gathered and
// ends Ready or Failed. Ready and Failed are re-enterable: a fee-tier change
// (or a caller-driven retry) moves the attempt back to Estimating. Nothing
// re-enters automatically.
type AttemptState string

const (
	StateIdle       AttemptState = "idle"
	StateEstimating AttemptState = "estimating"
	StateReady      AttemptState = "ready"
	StateFailed     AttemptState = "failed"
)

// CanTransition reports whether moving from s to next is a legal lifecycle
// step.
func (s AttemptState) CanTransition(next AttemptState) bool {
	switch s {
	case StateIdle:
		return next == StateEstimating
	case StateEstimating:
		return next == StateReady || next == StateFailed
	case StateReady, StateFailed:
		return next == StateEstimating
	default:
		return false
	}
}

// FeeTier names a speed/cost tradeoff for Bitcoin fee rates.
type FeeTier string

const (
	FeeTierFast   FeeTier = "fast"
	FeeTierMedium FeeTier = "medium"
	FeeTierSlow   FeeTier = "slow"
)

// FeeTierFromString parses a fee tier name, case-insensitively.
func FeeTierFromString(s string) (FeeTier, error) {
	tier := FeeTier(strings.ToLower(strings.TrimSpace(s)))
	switch tier {
	case FeeTierFast, FeeTierMedium, FeeTierSlow:
		return tier, nil
	default:
		return "", fmt.Errorf("unknown fee tier: %s", s)
	}
}
