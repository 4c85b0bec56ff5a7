package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/app-transfer/internal/metrics"
	"github.com/vultisig/app-transfer/internal/types"
)

// Storage persists attempts across lifecycle transitions. Implemented by the
// pgx store; consumed as an interface so the worker path is testable.
type Storage interface {
	GetAttempt(ctx context.Context, id uuid.UUID) (Attempt, error)
	SetState(ctx context.Context, id uuid.UUID, state types.AttemptState) error
	MarkReady(ctx context.Context, id uuid.UUID, request, unsignedTx []byte, unspent []types.UnspentOutput) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Consumer runs queued preparation attempts. One task is one attempt: load,
// move to Estimating, assemble, persist Ready or Failed. Failures worth a
// fresh try (network-class) go back to the queue; deterministic failures do
// not.
type Consumer struct {
	logger    *logrus.Logger
	storage   Storage
	assembler *Assembler
	sd        *statsd.Client
	metrics   *metrics.WorkerMetrics
}

func NewConsumer(
	logger *logrus.Logger,
	storage Storage,
	assembler *Assembler,
	sd *statsd.Client,
	workerMetrics *metrics.WorkerMetrics,
) *Consumer {
	return &Consumer{
		logger:    logger.WithField("pkg", "transfer.Consumer").Logger,
		storage:   storage,
		assembler: assembler,
		sd:        sd,
		metrics:   workerMetrics,
	}
}

func (c *Consumer) handle(ctx context.Context, t *asynq.Task) error {
	var payload PreparePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal prepare payload: %w", err)
	}

	attempt, err := c.storage.GetAttempt(ctx, payload.AttemptID)
	if err != nil {
		return fmt.Errorf("failed to get attempt: %w", err)
	}

	if !attempt.State.CanTransition(types.StateEstimating) {
		return fmt.Errorf("attempt %s cannot re-enter estimating from %s", attempt.ID, attempt.State)
	}
	if er := c.storage.SetState(ctx, attempt.ID, types.StateEstimating); er != nil {
		return fmt.Errorf("failed to set state: %w", er)
	}

	// Decode after the transition so a bad stored intent fails out of
	// Estimating like every other failure.
	intent, err := attempt.Intent.Intent()
	if err != nil {
		return c.fail(ctx, attempt, err)
	}

	started := time.Now()
	result, err := c.prepare(ctx, attempt, intent)
	c.metrics.RecordPreparation(intent.Chain.String(), err == nil, time.Since(started))
	_ = c.sd.Timing("transfer.prepare", time.Since(started), []string{"chain:" + intent.Chain.String()}, 1)
	if err != nil {
		return c.fail(ctx, attempt, err)
	}

	request, err := json.Marshal(result.Request)
	if err != nil {
		return c.fail(ctx, attempt, types.NewEncodingError("failed to marshal request: %v", err))
	}

	err = c.storage.MarkReady(ctx, attempt.ID, request, result.UnsignedTx, result.UnspentSet)
	if err != nil {
		return fmt.Errorf("failed to mark attempt ready: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"attempt": attempt.ID,
		"chain":   intent.Chain,
	}).Info("prepared transfer")
	return nil
}

// prepare picks the entry point: a Bitcoin attempt re-entering from a
// terminal state reuses the UTXO set its first run fetched.
func (c *Consumer) prepare(
	ctx context.Context,
	attempt Attempt,
	intent types.TransferIntent,
) (Result, error) {
	reentering := attempt.State == types.StateReady || attempt.State == types.StateFailed
	if reentering && intent.Chain.Kind() == types.KindBitcoin && len(attempt.UnspentSet) > 0 {
		return c.assembler.Reestimate(ctx, intent, attempt.FeeTier, attempt.UnspentSet)
	}
	return c.assembler.Prepare(ctx, intent, attempt.FeeTier)
}

// fail persists the terminal failure, then reports whether the queue should
// retry. The stored reason is the error text the caller will read back.
func (c *Consumer) fail(ctx context.Context, attempt Attempt, cause error) error {
	chain := attempt.Intent.Chain
	c.metrics.RecordFailure(chain, failureClass(cause))
	_ = c.sd.Incr("transfer.prepare.failure", []string{"chain:" + chain}, 1)

	if er := c.storage.MarkFailed(ctx, attempt.ID, cause.Error()); er != nil {
		return fmt.Errorf("failed to mark attempt failed: %w", er)
	}

	if types.IsRetryable(cause) {
		return cause
	}
	return fmt.Errorf("%w: %w", asynq.SkipRetry, cause)
}

func failureClass(err error) string {
	var inputErr *types.InputError
	var insufficientErr *types.InsufficientFundsError
	var encodingErr *types.EncodingError
	switch {
	case errors.As(err, &inputErr):
		return metrics.FailureClassInput
	case errors.As(err, &insufficientErr):
		return metrics.FailureClassInsufficiency
	case errors.As(err, &encodingErr):
		return metrics.FailureClassEncoding
	default:
		return metrics.FailureClassNetwork
	}
}

// Handle is the asynq entry point. Preparation has a hard deadline; errors
// are logged here with full context before the queue sees them.
func (c *Consumer) Handle(ctx context.Context, t *asynq.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	err := c.handle(ctx, t)
	if err != nil {
		c.logger.WithError(err).Error("failed to handle prepare task")
		return err
	}
	return nil
}
