package transfer

import (
	"context"
	"fmt"

	"github.com/vultisig/app-transfer/internal/evm"
	"github.com/vultisig/app-transfer/internal/solana"
	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// EVMPreparer prepares transfers on one EVM chain.
type EVMPreparer interface {
	Prepare(ctx context.Context, intent types.TransferIntent) (types.EVMTransactionRequest, error)
}

// BitcoinPreparer prepares Bitcoin transfers, with a variant that reuses an
// already-fetched UTXO set for fee-tier re-runs, and renders the prepared
// request as the signing packet handed to the external signer.
type BitcoinPreparer interface {
	PrepareSend(
		ctx context.Context,
		fromAddress string,
		toAddress string,
		amountSat uint64,
		tier types.FeeTier,
	) (types.BitcoinTransactionRequest, []types.UnspentOutput, error)
	PrepareSendWithUnspent(
		ctx context.Context,
		fromAddress string,
		toAddress string,
		amountSat uint64,
		tier types.FeeTier,
		utxos []types.UnspentOutput,
	) (types.BitcoinTransactionRequest, error)
	RenderSigningPacket(ctx context.Context, req types.BitcoinTransactionRequest) ([]byte, error)
}

// SolanaPreparer prepares Solana transfers.
type SolanaPreparer interface {
	Prepare(ctx context.Context, intent types.TransferIntent) (types.SolanaTransactionRequest, error)
}

// Result is a finished preparation: the chain-specific request, the rendered
// unsigned bytes for the signer (a PSBT packet on Bitcoin, raw transaction
// bytes elsewhere), and (for Bitcoin) the UTXO set the selection ran
// against, kept so a fee-tier change can re-run without refetching.
type Result struct {
	Request    types.TransactionRequest
	UnsignedTx []byte
	UnspentSet []types.UnspentOutput
}

// Assembler is the single entry point turning intents into transaction
// requests. It dispatches on the chain kind; the union of kinds is closed, so
// anything unrecognized is rejected as input.
type Assembler struct {
	evm     map[types.Chain]EVMPreparer
	bitcoin BitcoinPreparer
	solana  SolanaPreparer
}

func NewAssembler(
	evmNetworks map[types.Chain]EVMPreparer,
	bitcoin BitcoinPreparer,
	solanaNetwork SolanaPreparer,
) *Assembler {
	return &Assembler{
		evm:     evmNetworks,
		bitcoin: bitcoin,
		solana:  solanaNetwork,
	}
}

// Prepare runs one full preparation attempt for the intent. Queries run
// sequentially and the context is honored at every network call; no partial
// result is returned on error.
func (a *Assembler) Prepare(
	ctx context.Context,
	intent types.TransferIntent,
	tier types.FeeTier,
) (Result, error) {
	switch intent.Chain.Kind() {
	case types.KindEVM:
		return a.prepareEVM(ctx, intent)
	case types.KindBitcoin:
		return a.prepareBitcoin(ctx, intent, tier, nil)
	case types.KindSolana:
		return a.prepareSolana(ctx, intent)
	default:
		return Result{}, types.NewInputError("unsupported chain: %s", intent.Chain)
	}
}

// Reestimate re-runs a Bitcoin preparation at a new fee tier against the
// UTXO set gathered by the original attempt. Only Bitcoin attempts carry fee
// tiers; other chains reject the call.
func (a *Assembler) Reestimate(
	ctx context.Context,
	intent types.TransferIntent,
	tier types.FeeTier,
	unspent []types.UnspentOutput,
) (Result, error) {
	if intent.Chain.Kind() != types.KindBitcoin {
		return Result{}, types.NewInputError("fee tiers only apply to bitcoin, not %s", intent.Chain)
	}
	return a.prepareBitcoin(ctx, intent, tier, unspent)
}

func (a *Assembler) prepareEVM(ctx context.Context, intent types.TransferIntent) (Result, error) {
	network, ok := a.evm[intent.Chain]
	if !ok {
		return Result{}, types.NewInputError("no network configured for chain: %s", intent.Chain)
	}

	req, err := network.Prepare(ctx, intent)
	if err != nil {
		return Result{}, err
	}

	raw, err := evm.RenderUnsigned(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render unsigned tx: %w", err)
	}
	return Result{Request: req, UnsignedTx: raw}, nil
}

func (a *Assembler) prepareBitcoin(
	ctx context.Context,
	intent types.TransferIntent,
	tier types.FeeTier,
	unspent []types.UnspentOutput,
) (Result, error) {
	if _, isToken := intent.Token(); isToken {
		return Result{}, types.NewInputError("bitcoin has no token transfers")
	}

	amountSat, err := bitcoinAmountSat(intent.Amount)
	if err != nil {
		return Result{}, err
	}

	var req types.BitcoinTransactionRequest
	if unspent == nil {
		req, unspent, err = a.bitcoin.PrepareSend(ctx, intent.From, intent.To, amountSat, tier)
	} else {
		req, err = a.bitcoin.PrepareSendWithUnspent(ctx, intent.From, intent.To, amountSat, tier, unspent)
	}
	if err != nil {
		return Result{}, err
	}

	raw, err := a.bitcoin.RenderSigningPacket(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render signing packet: %w", err)
	}
	return Result{Request: req, UnsignedTx: raw, UnspentSet: unspent}, nil
}

func (a *Assembler) prepareSolana(ctx context.Context, intent types.TransferIntent) (Result, error) {
	req, err := a.solana.Prepare(ctx, intent)
	if err != nil {
		return Result{}, err
	}

	raw, err := solana.RenderUnsigned(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render unsigned tx: %w", err)
	}
	return Result{Request: req, UnsignedTx: raw}, nil
}

func bitcoinAmountSat(amount string) (uint64, error) {
	sat, err := util.ToBaseUnits(amount, 8)
	if err != nil {
		return 0, err
	}
	if sat.Sign() <= 0 {
		return 0, types.NewInputError("amount must be positive: %s", amount)
	}
	if !sat.IsUint64() {
		return 0, types.NewInputError("amount out of range: %s", amount)
	}
	return sat.Uint64(), nil
}
