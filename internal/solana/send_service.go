package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/vultisig/app-transfer/internal/types"
)

type sendService struct {
	rpcClient    *rpc.Client
	tokenAccount *tokenAccountService
}

func newSendService(rpcClient *rpc.Client, tokenAccount *tokenAccountService) *sendService {
	return &sendService{
		rpcClient:    rpcClient,
		tokenAccount: tokenAccount,
	}
}

// BuildNativeTransfer prepares a SOL transfer pinned to a fresh blockhash.
// Transfers into accounts that do not exist yet must carry at least the
// rent-exempt minimum or the runtime would reap the recipient.
func (s *sendService) BuildNativeTransfer(
	ctx context.Context,
	from solana.PublicKey,
	to solana.PublicKey,
	lamports uint64,
) (types.SolanaTransactionRequest, error) {
	if lamports == 0 {
		return types.SolanaTransactionRequest{}, types.NewInputError("solana: zero-lamport transfers are rejected")
	}

	accountInfo, err := s.rpcClient.GetAccountInfo(ctx, to)
	if err != nil && err.Error() != "not found" {
		return types.SolanaTransactionRequest{}, types.NewNetworkError("solana: failed to check destination account", err)
	}

	accountExists := accountInfo != nil && accountInfo.Value != nil

	if !accountExists {
		rentExempt, er := s.rpcClient.GetMinimumBalanceForRentExemption(ctx, 0, rpc.CommitmentFinalized)
		if er != nil {
			return types.SolanaTransactionRequest{}, types.NewNetworkError("solana: failed to get rent exemption", er)
		}

		if lamports < rentExempt {
			return types.SolanaTransactionRequest{}, types.NewInputError(
				"solana: transfer amount %d lamports is below rent-exempt minimum %d lamports for new account",
				lamports,
				rentExempt,
			)
		}
	}

	block, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return types.SolanaTransactionRequest{}, types.NewNetworkError("solana: failed to get recent blockhash", err)
	}

	return types.SolanaTransactionRequest{
		From:            from,
		Recipient:       to,
		Amount:          lamports,
		RecentBlockhash: block.Value.Blockhash,
	}, nil
}

// BuildTokenTransfer prepares an SPL token transfer between the associated
// token accounts of sender and recipient. The mint account decides which
// token program the instruction targets.
func (s *sendService) BuildTokenTransfer(
	ctx context.Context,
	mint solana.PublicKey,
	fromOwner solana.PublicKey,
	toOwner solana.PublicKey,
	amount uint64,
) (types.SolanaTransactionRequest, error) {
	if amount == 0 {
		return types.SolanaTransactionRequest{}, types.NewInputError("solana: zero-amount transfers are rejected")
	}

	tokenProgram, _, err := s.tokenAccount.GetTokenProgram(ctx, mint)
	if err != nil {
		return types.SolanaTransactionRequest{}, fmt.Errorf("failed to resolve token program: %w", err)
	}

	block, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return types.SolanaTransactionRequest{}, types.NewNetworkError("solana: failed to get recent blockhash", err)
	}

	return types.SolanaTransactionRequest{
		From:            fromOwner,
		Recipient:       toOwner,
		Amount:          amount,
		RecentBlockhash: block.Value.Blockhash,
		Mint:            mint,
		TokenProgram:    tokenProgram,
	}, nil
}
