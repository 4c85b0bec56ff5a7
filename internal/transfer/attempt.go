package transfer

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vultisig/app-transfer/internal/types"
)

// ErrAttemptNotFound is returned by storage lookups for unknown attempt IDs.
var ErrAttemptNotFound = errors.New("attempt not found")

// Attempt is one preparation attempt: the intent it serves, where it is in
// the lifecycle, and the outcome once it reaches a terminal state. The
// request and unsigned bytes are only set in StateReady; FailureReason only
// in StateFailed. A fee-tier change on a Bitcoin attempt re-enters
// StateEstimating and supersedes both.
type Attempt struct {
	ID            uuid.UUID
	Intent        IntentRecord
	State         types.AttemptState
	FeeTier       types.FeeTier
	Request       []byte // JSON-encoded TransactionRequest variant
	UnsignedTx    []byte // rendered unsigned transaction bytes
	UnspentSet    []types.UnspentOutput
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAttempt creates an Idle attempt for the given intent.
func NewAttempt(intent IntentRecord, tier types.FeeTier) Attempt {
	return Attempt{
		ID:      uuid.New(),
		Intent:  intent,
		State:   types.StateIdle,
		FeeTier: tier,
	}
}
