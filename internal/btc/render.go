package btc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// rbfSequence opts every input into replace-by-fee.
const rbfSequence = wire.MaxTxInSequenceNum - 2

// parseOutpoint splits a "txid:vout" identifier.
func parseOutpoint(id string) (*wire.OutPoint, error) {
	txid, voutStr, ok := strings.Cut(id, ":")
	if !ok {
		return nil, types.NewEncodingError("malformed outpoint: %s", id)
	}

	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, types.NewEncodingError("invalid txid in outpoint %s: %v", id, err)
	}

	vout, err := strconv.ParseUint(voutStr, 10, 32)
	if err != nil {
		return nil, types.NewEncodingError("invalid vout in outpoint %s: %v", id, err)
	}

	return wire.NewOutPoint(hash, uint32(vout)), nil
}

// RenderUnsigned builds the unsigned wire transaction for a prepared
// request: the selected inputs with RBF sequences, the recipient output and
// a change output when the remainder clears the dust threshold.
func RenderUnsigned(req types.BitcoinTransactionRequest) (*wire.MsgTx, error) {
	selection, err := selectionFromRequest(req)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)

	for _, input := range req.Inputs {
		outpoint, er := parseOutpoint(input.ID)
		if er != nil {
			return nil, er
		}
		txIn := wire.NewTxIn(outpoint, nil, nil)
		txIn.Sequence = rbfSequence
		tx.AddTxIn(txIn)
	}

	toAddr, err := ValidateAddress(req.To, req.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipient: %w", err)
	}
	toScript, err := txscript.PayToAddrScript(toAddr)
	if err != nil {
		return nil, types.NewEncodingError("failed to build recipient script: %v", err)
	}
	tx.AddTxOut(wire.NewTxOut(int64(req.AmountSat), toScript))

	if change, aboveDust := selection.ChangeSat(req.AmountSat); aboveDust {
		changeAddr, er := ValidateAddress(req.ChangeAddress, req.Network)
		if er != nil {
			return nil, fmt.Errorf("failed to parse change address: %w", er)
		}
		changeScript, er := txscript.PayToAddrScript(changeAddr)
		if er != nil {
			return nil, types.NewEncodingError("failed to build change script: %v", er)
		}
		tx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	}

	return tx, nil
}

// RenderPacket wraps the unsigned transaction into a PSBT packet, the
// serialization the external signer consumes.
func RenderPacket(req types.BitcoinTransactionRequest) (*psbt.Packet, error) {
	tx, err := RenderUnsigned(req)
	if err != nil {
		return nil, err
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, types.NewEncodingError("failed to build psbt: %v", err)
	}
	return packet, nil
}

// selectionFromRequest reconstructs the selection totals carried by a
// request so change math stays consistent with what was selected.
func selectionFromRequest(req types.BitcoinTransactionRequest) (Selection, error) {
	var total uint64
	for _, input := range req.Inputs {
		sum, ok := util.CheckedAdd(total, input.Satoshis)
		if !ok {
			return Selection{}, types.NewEncodingError("input amounts overflow")
		}
		total = sum
	}

	fee, ok := EstimateFee(len(req.Inputs), assumedOutputs, req.SatsPerVByte)
	if !ok {
		return Selection{}, types.NewEncodingError("fee computation overflows")
	}

	required, ok := util.CheckedAdd(req.AmountSat, fee)
	if !ok {
		return Selection{}, types.NewEncodingError("amount plus fee overflows")
	}
	if total < required {
		return Selection{}, types.NewEncodingError(
			"inputs %d sat do not cover amount %d sat plus fee %d sat",
			total, req.AmountSat, fee,
		)
	}

	return Selection{
		Inputs:   req.Inputs,
		TotalSat: total,
		FeeSat:   fee,
		VSize:    EstimateVSize(len(req.Inputs), assumedOutputs),
	}, nil
}
