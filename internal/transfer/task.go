package transfer

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	QueueName   = "transfer"
	TypePrepare = "transfer:prepare"
)

// PreparePayload points a queued task at a stored attempt. The intent itself
// lives in the store, so a re-enqueued attempt always reads current state.
type PreparePayload struct {
	AttemptID uuid.UUID `json:"attempt_id"`
}

func NewPrepareTask(attemptID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(PreparePayload{AttemptID: attemptID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prepare payload: %w", err)
	}
	return asynq.NewTask(TypePrepare, payload, asynq.Queue(QueueName)), nil
}
