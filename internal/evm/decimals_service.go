package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/app-transfer/internal/types"
)

// decimalsSelector is the first 4 bytes of keccak256("decimals()").
var decimalsSelector = [4]byte{0x31, 0x3c, 0xe5, 0x67}

type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type decimalsService struct {
	rpc contractCaller
}

func newDecimalsService(rpc contractCaller) *decimalsService {
	return &decimalsService{
		rpc: rpc,
	}
}

// GetDecimals fetches the decimals for an ERC-20 token
func (d *decimalsService) GetDecimals(ctx context.Context, token ecommon.Address) (uint8, error) {
	var zero ecommon.Address
	if token == zero {
		return 0, types.NewInputError("token address cannot be zero")
	}

	res, err := d.rpc.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: decimalsSelector[:],
	}, nil)
	if err != nil {
		return 0, types.NewNetworkError(
			fmt.Sprintf("failed to get decimals for token %s", token.Hex()),
			err,
		)
	}

	if len(res) != abiWordSize {
		return 0, types.NewNetworkError(
			fmt.Sprintf("failed to get decimals for token %s", token.Hex()),
			fmt.Errorf("unexpected return size %d", len(res)),
		)
	}

	// uint8 occupies the last byte of the ABI word.
	return res[abiWordSize-1], nil
}
