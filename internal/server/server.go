// Package server exposes the transfer preparation API over HTTP.
package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/kaptinlin/jsonschema"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/app-transfer/internal/evm"
	"github.com/vultisig/app-transfer/internal/metrics"
	"github.com/vultisig/app-transfer/internal/transfer"
	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// Storage is the attempt persistence the API needs. Implemented by the pgx
// store.
type Storage interface {
	CreateAttempt(ctx context.Context, attempt transfer.Attempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (transfer.Attempt, error)
	SetFeeTier(ctx context.Context, id uuid.UUID, tier types.FeeTier) error
}

// Enqueuer hands preparation tasks to the queue. Implemented by asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	e       *echo.Echo
	port    int
	logger  *logrus.Logger
	storage Storage
	queue   Enqueuer
	schema  *jsonschema.Schema
}

func NewServer(port int, storage Storage, queue Enqueuer, logger *logrus.Logger) (*Server, error) {
	schema, err := compileTransferSchema()
	if err != nil {
		return nil, err
	}

	s := &Server{
		port:    port,
		logger:  logger.WithField("pkg", "server").Logger,
		storage: storage,
		queue:   queue,
		schema:  schema,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(metrics.HTTPMiddleware())

	e.POST("/transfers", s.createTransfer)
	e.GET("/transfers/:id", s.getTransfer)
	e.PUT("/transfers/:id/fee-tier", s.changeFeeTier)
	e.GET("/chains", s.listChains)

	s.e = e
	return s, nil
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := s.e.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("failed to shutdown server: %v", err)
		}
	}()

	s.logger.Infof("api server listening on :%d", s.port)
	err := s.e.Start(fmt.Sprintf(":%d", s.port))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

type createTransferRequest struct {
	transfer.IntentRecord
	FeeTier string `json:"fee_tier,omitempty"`
}

type attemptView struct {
	ID            string          `json:"id"`
	Chain         string          `json:"chain"`
	State         string          `json:"state"`
	FeeTier       string          `json:"fee_tier"`
	Request       json.RawMessage `json:"request,omitempty"`
	UnsignedTx    string          `json:"unsigned_tx,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func viewOf(attempt transfer.Attempt) attemptView {
	return attemptView{
		ID:            attempt.ID.String(),
		Chain:         attempt.Intent.Chain,
		State:         string(attempt.State),
		FeeTier:       string(attempt.FeeTier),
		Request:       attempt.Request,
		UnsignedTx:    hex.EncodeToString(attempt.UnsignedTx),
		FailureReason: attempt.FailureReason,
		CreatedAt:     attempt.CreatedAt,
		UpdatedAt:     attempt.UpdatedAt,
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (s *Server) createTransfer(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("failed to read body"))
	}

	if er := validateBody(s.schema, body); er != nil {
		return c.JSON(http.StatusBadRequest, errorBody(er.Error()))
	}

	var req createTransferRequest
	if er := json.Unmarshal(body, &req); er != nil {
		return c.JSON(http.StatusBadRequest, errorBody("failed to decode body"))
	}

	// Chain name must resolve before anything is persisted.
	if _, er := req.IntentRecord.Intent(); er != nil {
		return c.JSON(http.StatusBadRequest, errorBody(er.Error()))
	}

	tier := types.FeeTierMedium
	if req.FeeTier != "" {
		tier, err = types.FeeTierFromString(req.FeeTier)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		}
	}

	attempt := transfer.NewAttempt(req.IntentRecord, tier)
	if er := s.storage.CreateAttempt(c.Request().Context(), attempt); er != nil {
		s.logger.WithError(er).Error("failed to create attempt")
		return c.JSON(http.StatusInternalServerError, errorBody("failed to create attempt"))
	}

	if er := s.enqueuePrepare(c.Request().Context(), attempt.ID); er != nil {
		s.logger.WithError(er).Error("failed to enqueue attempt")
		return c.JSON(http.StatusInternalServerError, errorBody("failed to enqueue attempt"))
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"id":    attempt.ID.String(),
		"state": string(attempt.State),
	})
}

func (s *Server) getTransfer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid attempt id"))
	}

	attempt, err := s.storage.GetAttempt(c.Request().Context(), id)
	if errors.Is(err, transfer.ErrAttemptNotFound) {
		return c.JSON(http.StatusNotFound, errorBody("attempt not found"))
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to get attempt")
		return c.JSON(http.StatusInternalServerError, errorBody("failed to get attempt"))
	}

	return c.JSON(http.StatusOK, viewOf(attempt))
}

// changeFeeTier re-runs a Bitcoin attempt at a different fee tier. The worker
// reuses the UTXO set the first run fetched; other chains have no tiers.
func (s *Server) changeFeeTier(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid attempt id"))
	}

	var body struct {
		FeeTier string `json:"fee_tier"`
	}
	if er := c.Bind(&body); er != nil {
		return c.JSON(http.StatusBadRequest, errorBody("failed to decode body"))
	}
	tier, err := types.FeeTierFromString(body.FeeTier)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	attempt, err := s.storage.GetAttempt(c.Request().Context(), id)
	if errors.Is(err, transfer.ErrAttemptNotFound) {
		return c.JSON(http.StatusNotFound, errorBody("attempt not found"))
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to get attempt")
		return c.JSON(http.StatusInternalServerError, errorBody("failed to get attempt"))
	}

	chain, err := types.FromString(attempt.Intent.Chain)
	if err != nil || chain.Kind() != types.KindBitcoin {
		return c.JSON(http.StatusBadRequest, errorBody("fee tiers only apply to bitcoin attempts"))
	}
	if !attempt.State.CanTransition(types.StateEstimating) {
		return c.JSON(http.StatusConflict, errorBody(
			fmt.Sprintf("attempt in state %s cannot re-estimate", attempt.State),
		))
	}

	if er := s.storage.SetFeeTier(c.Request().Context(), id, tier); er != nil {
		s.logger.WithError(er).Error("failed to set fee tier")
		return c.JSON(http.StatusInternalServerError, errorBody("failed to set fee tier"))
	}

	if er := s.enqueuePrepare(c.Request().Context(), id); er != nil {
		s.logger.WithError(er).Error("failed to enqueue re-estimation")
		return c.JSON(http.StatusInternalServerError, errorBody("failed to enqueue re-estimation"))
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"id":       id.String(),
		"fee_tier": string(tier),
	})
}

type chainView struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	ChainID        uint64 `json:"chain_id,omitempty"`
	NativeDecimals int    `json:"native_decimals"`
	Testnet        bool   `json:"testnet,omitempty"`
}

func (s *Server) listChains(c echo.Context) error {
	var views []chainView
	for _, chain := range types.SupportedChains() {
		decimals, err := util.GetNativeDecimals(chain)
		if err != nil {
			continue
		}
		view := chainView{
			Name:           chain.String(),
			Kind:           string(chain.Kind()),
			NativeDecimals: decimals,
		}
		if chain.Kind() == types.KindEVM {
			info, err := evm.ChainByName(chain)
			if err != nil {
				continue
			}
			view.ChainID = info.ID
			view.Testnet = info.Testnet
		}
		views = append(views, view)
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) enqueuePrepare(ctx context.Context, id uuid.UUID) error {
	task, err := transfer.NewPrepareTask(id)
	if err != nil {
		return err
	}
	_, err = s.queue.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}
