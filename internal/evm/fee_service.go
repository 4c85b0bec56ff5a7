package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// ErrUnreasonableFeeData marks fee inputs from the network that cannot be
// combined without overflowing a uint64. Fee data is untrusted input; a
// wrapped value must never reach a request.
var ErrUnreasonableFeeData = errors.New("unreasonable fee data")

// rpcCaller is the subset of the ethclient API the fee estimator needs.
// *ethclient.Client satisfies it.
type rpcCaller interface {
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account ecommon.Address) (uint64, error)
}

// FeeQuote is a complete EIP-1559 fee parameterization for one preparation
// attempt. Quotes are computed fresh per attempt, never cached across
// intents.
type FeeQuote struct {
	MaxFeePerGas         uint64
	MaxPriorityFeePerGas uint64
	GasLimit             uint64
	Nonce                uint64

	// WorstCaseFee is MaxFeePerGas * GasLimit, the most the transaction can
	// ever cost.
	WorstCaseFee uint64
}

// DisplayFee renders the worst-case fee in native units, for UI and logs
// only.
func (q FeeQuote) DisplayFee(nativeDecimals int) util.DisplayAmount {
	return util.ToDisplay(q.WorstCaseFee, nativeDecimals)
}

type feeService struct {
	rpc rpcCaller
}

func newFeeService(rpc rpcCaller) *feeService {
	return &feeService{
		rpc: rpc,
	}
}

// Estimate gathers nonce, fee data and a gas limit for the given call and
// combines them into a FeeQuote. The queries run sequentially; ctx cancels
// at any step.
func (s *feeService) Estimate(
	ctx context.Context,
	from ecommon.Address,
	to ecommon.Address,
	value *big.Int,
	data []byte,
) (FeeQuote, error) {
	nonce, err := s.rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return FeeQuote{}, types.NewNetworkError("failed to fetch nonce", err)
	}

	baseFee, priorityFee, err := s.fetchFeeData(ctx)
	if err != nil {
		return FeeQuote{}, err
	}

	msg := ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	}
	gasLimit, err := s.rpc.EstimateGas(ctx, msg)
	if err != nil {
		return FeeQuote{}, types.NewNetworkError("failed to estimate gas", err)
	}

	return computeQuote(baseFee, priorityFee, gasLimit, nonce)
}

// fetchFeeData queries recent fee history for the current base fee and the
// median priority fee. When the node reports no rewards it falls back to the
// suggested tip.
func (s *feeService) fetchFeeData(ctx context.Context) (baseFee, priorityFee uint64, err error) {
	history, err := s.rpc.FeeHistory(ctx, 1, nil, []float64{50})
	if err != nil {
		return 0, 0, types.NewNetworkError("failed to fetch fee history", err)
	}
	if len(history.BaseFee) == 0 {
		return 0, 0, types.NewNetworkError("failed to fetch fee history", errors.New("empty base fee data"))
	}

	// The last entry is the projected base fee of the next block.
	base := history.BaseFee[len(history.BaseFee)-1]
	if !base.IsUint64() {
		return 0, 0, types.NewNetworkError("failed to fetch fee history", ErrUnreasonableFeeData)
	}

	var tip *big.Int
	if len(history.Reward) > 0 && len(history.Reward[0]) > 0 {
		tip = history.Reward[0][0]
	} else {
		tip, err = s.rpc.SuggestGasTipCap(ctx)
		if err != nil {
			return 0, 0, types.NewNetworkError("failed to fetch suggested tip", err)
		}
	}
	if !tip.IsUint64() {
		return 0, 0, types.NewNetworkError("failed to fetch suggested tip", ErrUnreasonableFeeData)
	}

	return base.Uint64(), tip.Uint64(), nil
}

// computeQuote derives maxFeePerGas = 2*baseFee + priorityFee and the
// worst-case total. The doubling absorbs one full block of base-fee increase
// before the transaction would need resubmission. Every step is overflow
// checked.
func computeQuote(baseFee, priorityFee, gasLimit, nonce uint64) (FeeQuote, error) {
	doubled, ok := util.CheckedMul(baseFee, 2)
	if !ok {
		return FeeQuote{}, types.NewNetworkError(
			"failed to compute max fee",
			fmt.Errorf("%w: base fee %d", ErrUnreasonableFeeData, baseFee),
		)
	}

	maxFee, ok := util.CheckedAdd(doubled, priorityFee)
	if !ok {
		return FeeQuote{}, types.NewNetworkError(
			"failed to compute max fee",
			fmt.Errorf("%w: base fee %d, priority fee %d", ErrUnreasonableFeeData, baseFee, priorityFee),
		)
	}

	worstCase, ok := util.CheckedMul(maxFee, gasLimit)
	if !ok {
		return FeeQuote{}, types.NewNetworkError(
			"failed to compute worst-case fee",
			fmt.Errorf("%w: max fee %d, gas limit %d", ErrUnreasonableFeeData, maxFee, gasLimit),
		)
	}

	return FeeQuote{
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: priorityFee,
		GasLimit:             gasLimit,
		Nonce:                nonce,
		WorstCaseFee:         worstCase,
	}, nil
}
