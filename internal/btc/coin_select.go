package btc

import (
	"errors"
	"sort"

	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// errUnreasonableUtxoData marks network-reported amounts or rates that
// overflow a uint64 when combined.
var errUnreasonableUtxoData = errors.New("unreasonable utxo data")

// P2WPKH weight estimates, in virtual bytes.
const (
	inputVBytes      = 68
	outputVBytes     = 31
	overheadVBytes   = 10
	assumedOutputs   = 2 // recipient + change
	dustThresholdSat = 546
)

// Selection is an immutable snapshot of a coin selection: the chosen inputs
// and the fee implied by that exact input count.
type Selection struct {
	Inputs   []types.UnspentOutput
	TotalSat uint64
	FeeSat   uint64
	VSize    uint64
}

// EstimateVSize computes the estimated virtual size of a P2WPKH transaction
// with the given input and output counts.
func EstimateVSize(numInputs, numOutputs int) uint64 {
	return overheadVBytes + uint64(numInputs)*inputVBytes + uint64(numOutputs)*outputVBytes
}

// EstimateFee computes rate x vsize with overflow detection; network-supplied
// rates are untrusted.
func EstimateFee(numInputs, numOutputs int, satsPerVByte uint64) (uint64, bool) {
	return util.CheckedMul(satsPerVByte, EstimateVSize(numInputs, numOutputs))
}

// Select picks unspent outputs to cover amountSat plus the fee at
// satsPerVByte. Outputs are taken largest first; after each addition the fee
// is recomputed for the new input count, so selection and fee converge
// together. The input slice is never mutated; each accepted snapshot is a
// fresh Selection.
//
// On insufficiency the returned error carries the total available across all
// outputs and the total required at the final input count.
func Select(utxos []types.UnspentOutput, amountSat, satsPerVByte uint64) (Selection, error) {
	if len(utxos) == 0 {
		return Selection{}, &types.InsufficientFundsError{
			AvailableSat: 0,
			RequiredSat:  amountSat,
		}
	}

	sorted := make([]types.UnspentOutput, len(utxos))
	copy(sorted, utxos)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Satoshis > sorted[j].Satoshis
	})

	var total uint64
	for n := 1; n <= len(sorted); n++ {
		sum, ok := util.CheckedAdd(total, sorted[n-1].Satoshis)
		if !ok {
			return Selection{}, types.NewNetworkError(
				"failed to sum unspent outputs",
				errUnreasonableUtxoData,
			)
		}
		total = sum

		fee, ok := EstimateFee(n, assumedOutputs, satsPerVByte)
		if !ok {
			return Selection{}, types.NewNetworkError(
				"failed to compute fee",
				errUnreasonableUtxoData,
			)
		}

		required, ok := util.CheckedAdd(amountSat, fee)
		if !ok {
			return Selection{}, types.NewNetworkError(
				"failed to compute required total",
				errUnreasonableUtxoData,
			)
		}

		if total >= required {
			inputs := make([]types.UnspentOutput, n)
			copy(inputs, sorted[:n])
			return Selection{
				Inputs:   inputs,
				TotalSat: total,
				FeeSat:   fee,
				VSize:    EstimateVSize(n, assumedOutputs),
			}, nil
		}
	}

	// Every output is in; report the shortfall at the full input count.
	fee, _ := EstimateFee(len(sorted), assumedOutputs, satsPerVByte)
	required, _ := util.CheckedAdd(amountSat, fee)
	return Selection{}, &types.InsufficientFundsError{
		AvailableSat: total,
		RequiredSat:  required,
	}
}

// ChangeSat reports the change for a selection and whether it clears the
// dust threshold. Change below dust folds into the fee instead of creating
// an uneconomical output.
func (s Selection) ChangeSat(amountSat uint64) (uint64, bool) {
	change := s.TotalSat - amountSat - s.FeeSat
	return change, change >= dustThresholdSat
}
