package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// FixedFeeLamports is the base fee of a single-signature transaction. Solana
// fees do not depend on load the way EVM fees do, so no estimation query is
// needed.
const FixedFeeLamports uint64 = 5000

// Network bundles the Solana preparation services behind one RPC connection.
type Network struct {
	Send         *sendService
	TokenAccount *tokenAccountService
}

func NewNetwork(ctx context.Context, rpcURL string) (*Network, error) {
	rpcClient := rpc.New(rpcURL)

	_, err := rpcClient.GetVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Solana RPC: %w", err)
	}

	tokenAccount := newTokenAccountService(rpcClient)

	return &Network{
		Send:         newSendService(rpcClient, tokenAccount),
		TokenAccount: tokenAccount,
	}, nil
}

// Prepare resolves addresses and the amount, then builds the request. Native
// transfers use 9 decimals (lamports); token transfers use the decimals
// supplied with the intent, falling back to the mint account.
func (n *Network) Prepare(
	ctx context.Context,
	intent types.TransferIntent,
) (types.SolanaTransactionRequest, error) {
	from, err := solana.PublicKeyFromBase58(intent.From)
	if err != nil {
		return types.SolanaTransactionRequest{}, types.NewInputError("invalid solana sender: %s", intent.From)
	}
	to, err := solana.PublicKeyFromBase58(intent.To)
	if err != nil {
		return types.SolanaTransactionRequest{}, types.NewInputError("invalid solana recipient: %s", intent.To)
	}

	token, isToken := intent.Token()
	if !isToken {
		lamports, er := baseUnits(intent.Amount, 9)
		if er != nil {
			return types.SolanaTransactionRequest{}, er
		}
		return n.Send.BuildNativeTransfer(ctx, from, to, lamports)
	}

	mint, err := solana.PublicKeyFromBase58(token.Contract)
	if err != nil {
		return types.SolanaTransactionRequest{}, types.NewInputError("invalid mint address: %s", token.Contract)
	}

	decimals := intent.TokenDecimals
	if decimals <= 0 {
		_, d, er := n.TokenAccount.GetTokenProgram(ctx, mint)
		if er != nil {
			return types.SolanaTransactionRequest{}, fmt.Errorf("failed to resolve mint decimals: %w", er)
		}
		decimals = int(d)
	}

	amount, err := baseUnits(intent.Amount, decimals)
	if err != nil {
		return types.SolanaTransactionRequest{}, err
	}
	return n.Send.BuildTokenTransfer(ctx, mint, from, to, amount)
}

func baseUnits(amount string, decimals int) (uint64, error) {
	base, err := util.ToBaseUnits(amount, decimals)
	if err != nil {
		return 0, err
	}
	if base.Sign() < 0 {
		return 0, types.NewInputError("negative amount: %s", amount)
	}
	if !base.IsUint64() {
		return 0, types.NewInputError("amount out of range: %s", amount)
	}
	return base.Uint64(), nil
}
