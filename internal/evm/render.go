package evm

import (
	"fmt"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/vultisig/app-transfer/internal/types"
)

// RenderUnsigned serializes a prepared request into unsigned EIP-1559
// transaction bytes for the signing hand-off.
func RenderUnsigned(req types.EVMTransactionRequest) ([]byte, error) {
	to := req.To
	value := new(big.Int)
	if req.Value != nil {
		value = (*big.Int)(req.Value)
	}
	tx := gethtypes.NewTx(&gethtypes.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(req.ChainID),
		Nonce:     req.Nonce,
		GasTipCap: new(big.Int).SetUint64(req.MaxPriorityFeePerGas),
		GasFeeCap: new(big.Int).SetUint64(req.MaxFeePerGas),
		Gas:       req.GasLimit,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize unsigned tx: %w", err)
	}
	return raw, nil
}
