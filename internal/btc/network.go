package btc

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"

	"github.com/vultisig/app-transfer/internal/types"
)

// utxoSource supplies the sender's unspent outputs and the raw bytes of the
// transactions that created them.
type utxoSource interface {
	GetAllUnspent(ctx context.Context, address string) ([]types.UnspentOutput, error)
	GetRawTransaction(ctx context.Context, txHash string) ([]byte, error)
}

// Network prepares Bitcoin transfers: it gathers unspent outputs and fee
// tiers, runs coin selection and packages the result.
type Network struct {
	utxo utxoSource
	fee  feeProvider
	send *sendService
}

func NewNetwork(network types.BitcoinNetwork, utxo utxoSource, fee feeProvider) *Network {
	return &Network{
		utxo: utxo,
		fee:  fee,
		send: newSendService(network),
	}
}

// FetchUnspent returns all unspent outputs for an address. The caller may
// hold on to the set for fee-tier re-estimation.
func (n *Network) FetchUnspent(ctx context.Context, address string) ([]types.UnspentOutput, error) {
	utxos, err := n.utxo.GetAllUnspent(ctx, address)
	if err != nil {
		return nil, types.NewNetworkError("failed to fetch unspent outputs", err)
	}
	return utxos, nil
}

// PrepareSend runs the full preparation: fetch the UTXO set, pick the rate
// for the requested tier, select coins and build the request.
func (n *Network) PrepareSend(
	ctx context.Context,
	fromAddress string,
	toAddress string,
	amountSat uint64,
	tier types.FeeTier,
) (types.BitcoinTransactionRequest, []types.UnspentOutput, error) {
	utxos, err := n.FetchUnspent(ctx, fromAddress)
	if err != nil {
		return types.BitcoinTransactionRequest{}, nil, err
	}

	req, err := n.PrepareSendWithUnspent(ctx, fromAddress, toAddress, amountSat, tier, utxos)
	if err != nil {
		return types.BitcoinTransactionRequest{}, nil, err
	}
	return req, utxos, nil
}

// PrepareSendWithUnspent re-runs selection against an already-fetched UTXO
// set. A fee-tier change re-enters here so the set gathered by the first run
// is reused instead of refetched; the previous selection and fee are fully
// superseded.
func (n *Network) PrepareSendWithUnspent(
	ctx context.Context,
	fromAddress string,
	toAddress string,
	amountSat uint64,
	tier types.FeeTier,
	utxos []types.UnspentOutput,
) (types.BitcoinTransactionRequest, error) {
	tiers, err := n.fee.FeeRateTiers(ctx)
	if err != nil {
		return types.BitcoinTransactionRequest{}, types.NewNetworkError("failed to fetch fee rates", err)
	}

	rate := tiers.Rate(tier)
	if rate == 0 {
		return types.BitcoinTransactionRequest{}, types.NewNetworkError(
			"failed to fetch fee rates",
			fmt.Errorf("zero rate for tier %s", tier),
		)
	}

	selection, err := Select(utxos, amountSat, rate)
	if err != nil {
		return types.BitcoinTransactionRequest{}, fmt.Errorf("failed to select coins: %w", err)
	}

	req, err := n.send.BuildTransfer(toAddress, fromAddress, amountSat, selection, rate)
	if err != nil {
		return types.BitcoinTransactionRequest{}, fmt.Errorf("failed to build transfer: %w", err)
	}
	return req, nil
}

// RenderSigningPacket renders the request as a PSBT packet with each input's
// previous transaction attached, the serialization the external signer
// consumes. Previous transactions are fetched once per txid.
func (n *Network) RenderSigningPacket(ctx context.Context, req types.BitcoinTransactionRequest) ([]byte, error) {
	packet, err := RenderPacket(req)
	if err != nil {
		return nil, err
	}

	updater, err := psbt.NewUpdater(packet)
	if err != nil {
		return nil, types.NewEncodingError("failed to init psbt updater: %v", err)
	}

	prevTxs := make(map[string]*wire.MsgTx)
	for i, input := range req.Inputs {
		txid, _, ok := strings.Cut(input.ID, ":")
		if !ok {
			return nil, types.NewEncodingError("malformed outpoint: %s", input.ID)
		}

		prevTx, ok := prevTxs[txid]
		if !ok {
			raw, er := n.utxo.GetRawTransaction(ctx, txid)
			if er != nil {
				return nil, types.NewNetworkError("failed to fetch previous transaction", er)
			}
			prevTx = &wire.MsgTx{}
			if er := prevTx.Deserialize(bytes.NewReader(raw)); er != nil {
				return nil, types.NewEncodingError("failed to decode previous transaction %s: %v", txid, er)
			}
			prevTxs[txid] = prevTx
		}

		if er := updater.AddInNonWitnessUtxo(prevTx, i); er != nil {
			return nil, types.NewEncodingError("failed to attach previous transaction %s: %v", txid, er)
		}
	}

	var buf bytes.Buffer
	if er := packet.Serialize(&buf); er != nil {
		return nil, types.NewEncodingError("failed to serialize psbt: %v", er)
	}
	return buf.Bytes(), nil
}
