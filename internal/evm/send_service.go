package evm

import (
	"context"
	"fmt"
	"math/big"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/app-transfer/internal/types"
)

type sendService struct {
	info   ChainInfo
	fee    *feeService
	logger *logrus.Logger
}

func newSendService(info ChainInfo, fee *feeService, logger *logrus.Logger) *sendService {
	return &sendService{
		info:   info,
		fee:    fee,
		logger: logger,
	}
}

// logQuote reports the estimate in native display units; the exact integers
// stay on the request.
func (s *sendService) logQuote(quote FeeQuote) {
	s.logger.WithFields(logrus.Fields{
		"chain_id":       s.info.ID,
		"gas_limit":      quote.GasLimit,
		"worst_case_fee": quote.DisplayFee(s.info.NativeDecimals).String(),
	}).Debug("estimated transfer fees")
}

// BuildNativeTransfer prepares a native coin transfer. The gas estimate
// targets the recipient directly with the transfer value.
func (s *sendService) BuildNativeTransfer(
	ctx context.Context,
	from ecommon.Address,
	to ecommon.Address,
	amount *big.Int,
) (types.EVMTransactionRequest, error) {
	quote, err := s.fee.Estimate(ctx, from, to, amount, nil)
	if err != nil {
		return types.EVMTransactionRequest{}, fmt.Errorf("failed to estimate fees: %w", err)
	}
	s.logQuote(quote)

	return types.EVMTransactionRequest{
		ChainID:              s.info.ID,
		Nonce:                quote.Nonce,
		To:                   to,
		Value:                (*hexutil.Big)(amount),
		MaxFeePerGas:         quote.MaxFeePerGas,
		MaxPriorityFeePerGas: quote.MaxPriorityFeePerGas,
		GasLimit:             quote.GasLimit,
	}, nil
}

// BuildTokenTransfer prepares an ERC-20 transfer. The transaction targets
// the token contract with encoded calldata and a zero native value, and the
// gas estimate simulates that exact call. The amount arrives as base-unit
// hex so token supplies wider than uint64 never touch a fixed-width type.
func (s *sendService) BuildTokenTransfer(
	ctx context.Context,
	token ecommon.Address,
	from ecommon.Address,
	to ecommon.Address,
	amountHex string,
) (types.EVMTransactionRequest, error) {
	data, err := EncodeTransfer(to.Hex(), amountHex)
	if err != nil {
		return types.EVMTransactionRequest{}, fmt.Errorf("failed to encode transfer calldata: %w", err)
	}

	quote, err := s.fee.Estimate(ctx, from, token, big.NewInt(0), data)
	if err != nil {
		return types.EVMTransactionRequest{}, fmt.Errorf("failed to estimate fees: %w", err)
	}
	s.logQuote(quote)

	return types.EVMTransactionRequest{
		ChainID:              s.info.ID,
		Nonce:                quote.Nonce,
		To:                   token,
		Value:                (*hexutil.Big)(big.NewInt(0)),
		Data:                 data,
		MaxFeePerGas:         quote.MaxFeePerGas,
		MaxPriorityFeePerGas: quote.MaxPriorityFeePerGas,
		GasLimit:             quote.GasLimit,
	}, nil
}
