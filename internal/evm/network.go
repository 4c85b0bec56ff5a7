package evm

import (
	"context"
	"fmt"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// Network bundles the services for one EVM chain behind one RPC connection.
type Network struct {
	Chain    types.Chain
	Info     ChainInfo
	Send     *sendService
	Fee      *feeService
	Decimals *decimalsService
}

func NewNetwork(ctx context.Context, chain types.Chain, rpcURL string, logger *logrus.Logger) (*Network, error) {
	info, err := ChainByName(chain)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain info: %w", err)
	}

	if rpcURL == "" {
		rpcURL = info.DefaultRPC
	}

	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	fee := newFeeService(rpc)

	return &Network{
		Chain:    chain,
		Info:     info,
		Send:     newSendService(info, fee, logger),
		Fee:      fee,
		Decimals: newDecimalsService(rpc),
	}, nil
}

// Prepare turns a decoded intent into a fully parameterized request. Native
// transfers convert the amount at the chain's native decimals; token
// transfers use the decimals supplied with the intent, falling back to an
// on-chain decimals() query, and hand the amount to the calldata encoder as
// base-unit hex.
func (n *Network) Prepare(
	ctx context.Context,
	intent types.TransferIntent,
) (types.EVMTransactionRequest, error) {
	from, err := ParseAddress(intent.From)
	if err != nil {
		return types.EVMTransactionRequest{}, fmt.Errorf("failed to parse sender: %w", err)
	}
	to, err := ParseAddress(intent.To)
	if err != nil {
		return types.EVMTransactionRequest{}, fmt.Errorf("failed to parse recipient: %w", err)
	}

	token, isToken := intent.Token()
	if !isToken {
		amount, er := util.ToBaseUnits(intent.Amount, n.Info.NativeDecimals)
		if er != nil {
			return types.EVMTransactionRequest{}, er
		}
		if amount.Sign() < 0 {
			return types.EVMTransactionRequest{}, types.NewInputError("negative amount: %s", intent.Amount)
		}

		req, er := n.Send.BuildNativeTransfer(ctx, from, to, amount)
		if er != nil {
			return types.EVMTransactionRequest{}, fmt.Errorf("failed to build native transfer: %w", er)
		}
		return req, nil
	}

	contract, err := ParseAddress(token.Contract)
	if err != nil {
		return types.EVMTransactionRequest{}, fmt.Errorf("failed to parse token contract: %w", err)
	}

	var zero ecommon.Address
	if contract == zero {
		return types.EVMTransactionRequest{}, types.NewInputError("token contract cannot be zero address")
	}

	decimals := intent.TokenDecimals
	if decimals <= 0 {
		d, er := n.Decimals.GetDecimals(ctx, contract)
		if er != nil {
			return types.EVMTransactionRequest{}, fmt.Errorf("failed to resolve token decimals: %w", er)
		}
		decimals = int(d)
	}

	amountHex, err := util.ToBaseUnitsHex(intent.Amount, decimals)
	if err != nil {
		return types.EVMTransactionRequest{}, err
	}

	req, err := n.Send.BuildTokenTransfer(ctx, contract, from, to, amountHex)
	if err != nil {
		return types.EVMTransactionRequest{}, fmt.Errorf("failed to build token transfer: %w", err)
	}
	return req, nil
}
