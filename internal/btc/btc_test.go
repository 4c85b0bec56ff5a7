package btc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/app-transfer/internal/types"
)

const (
	txidA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	txidB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	txidC = "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"

	// BIP-173 reference addresses.
	mainnetAddr = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	testnetAddr = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
)

func utxo(txid string, vout int, sats uint64) types.UnspentOutput {
	return types.UnspentOutput{
		ID:       fmt.Sprintf("%s:%d", txid, vout),
		Satoshis: sats,
	}
}

func TestEstimateVSize(t *testing.T) {
	// 1 input, 2 outputs: 68 + 62 + 10.
	require.Equal(t, uint64(140), EstimateVSize(1, 2))
	require.Equal(t, uint64(208), EstimateVSize(2, 2))
}

func TestSelect(t *testing.T) {
	utxos := []types.UnspentOutput{
		utxo(txidC, 0, 1000),
		utxo(txidA, 0, 5000),
		utxo(txidB, 0, 3000),
	}

	t.Run("greedy largest-first picks one sufficient output", func(t *testing.T) {
		selection, err := Select(utxos, 4000, 1)
		require.NoError(t, err)
		require.Len(t, selection.Inputs, 1)
		require.Equal(t, uint64(5000), selection.Inputs[0].Satoshis)
		require.Equal(t, uint64(140), selection.FeeSat)
		require.GreaterOrEqual(t, selection.TotalSat, 4000+selection.FeeSat)
	})

	t.Run("adds inputs until amount plus fee is covered", func(t *testing.T) {
		selection, err := Select(utxos, 5500, 1)
		require.NoError(t, err)
		require.Len(t, selection.Inputs, 2)
		require.Equal(t, uint64(8000), selection.TotalSat)
		require.Equal(t, uint64(208), selection.FeeSat)
	})

	t.Run("fee tracks the input count, not a fixed estimate", func(t *testing.T) {
		selection, err := Select(utxos, 8000, 1)
		require.NoError(t, err)
		require.Len(t, selection.Inputs, 3)
		require.Equal(t, EstimateVSize(3, 2), selection.VSize)
	})

	t.Run("insufficient funds reports available and required totals", func(t *testing.T) {
		_, err := Select(utxos, 20_000, 1)

		var insErr *types.InsufficientFundsError
		require.ErrorAs(t, err, &insErr)
		require.Equal(t, uint64(9000), insErr.AvailableSat)
		// 3 inputs, 2 outputs: vsize 276, fee 276 at 1 sat/vB.
		require.Equal(t, uint64(20_276), insErr.RequiredSat)
	})

	t.Run("empty set is insufficient", func(t *testing.T) {
		_, err := Select(nil, 1000, 1)

		var insErr *types.InsufficientFundsError
		require.ErrorAs(t, err, &insErr)
		require.Equal(t, uint64(0), insErr.AvailableSat)
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		before := make([]types.UnspentOutput, len(utxos))
		copy(before, utxos)

		_, err := Select(utxos, 4000, 1)
		require.NoError(t, err)
		require.Equal(t, before, utxos)
	})

	t.Run("overflowing amounts are rejected, not wrapped", func(t *testing.T) {
		huge := []types.UnspentOutput{
			utxo(txidA, 0, math.MaxUint64),
			utxo(txidB, 0, math.MaxUint64),
		}
		_, err := Select(huge, math.MaxUint64, 1)
		require.Error(t, err)

		var insErr *types.InsufficientFundsError
		require.False(t, errors.As(err, &insErr))
	})
}

func TestSelectMonotonicUnderRisingRate(t *testing.T) {
	utxos := []types.UnspentOutput{
		utxo(txidA, 0, 5000),
		utxo(txidB, 0, 4800),
		utxo(txidC, 0, 4600),
	}

	prevInputs := 0
	for _, rate := range []uint64{1, 2, 4, 8, 16} {
		selection, err := Select(utxos, 4500, rate)
		if err != nil {
			// Once a rate is unaffordable, every higher rate is too.
			var insErr *types.InsufficientFundsError
			require.ErrorAs(t, err, &insErr)
			continue
		}
		require.GreaterOrEqual(t, len(selection.Inputs), prevInputs,
			"raising the rate to %d sat/vB selected fewer inputs", rate)
		prevInputs = len(selection.Inputs)
	}
}

func TestChangeSat(t *testing.T) {
	selection := Selection{TotalSat: 10_000, FeeSat: 140}

	change, aboveDust := selection.ChangeSat(9000)
	require.Equal(t, uint64(860), change)
	require.True(t, aboveDust)

	change, aboveDust = selection.ChangeSat(9500)
	require.Equal(t, uint64(360), change)
	require.False(t, aboveDust)
}

func TestValidateAddress(t *testing.T) {
	_, err := ValidateAddress(mainnetAddr, types.BitcoinMainnet)
	require.NoError(t, err)

	_, err = ValidateAddress(testnetAddr, types.BitcoinTestnet)
	require.NoError(t, err)

	_, err = ValidateAddress(testnetAddr, types.BitcoinMainnet)
	var inputErr *types.InputError
	require.ErrorAs(t, err, &inputErr)

	_, err = ValidateAddress("not-an-address", types.BitcoinMainnet)
	require.ErrorAs(t, err, &inputErr)
}

func TestRenderUnsigned(t *testing.T) {
	base := types.BitcoinTransactionRequest{
		Inputs: []types.UnspentOutput{
			{ID: txidA + ":0", Satoshis: 10_000},
		},
		To:            mainnetAddr,
		AmountSat:     5000,
		ChangeAddress: mainnetAddr,
		SatsPerVByte:  1,
		Network:       types.BitcoinMainnet,
	}

	t.Run("renders recipient and change with RBF sequences", func(t *testing.T) {
		tx, err := RenderUnsigned(base)
		require.NoError(t, err)
		require.Len(t, tx.TxIn, 1)
		require.Equal(t, uint32(rbfSequence), tx.TxIn[0].Sequence)
		require.Equal(t, txidA, tx.TxIn[0].PreviousOutPoint.Hash.String())

		// 10000 in - 5000 out - 140 fee = 4860 change, above dust.
		require.Len(t, tx.TxOut, 2)
		require.Equal(t, int64(5000), tx.TxOut[0].Value)
		require.Equal(t, int64(4860), tx.TxOut[1].Value)
	})

	t.Run("change below dust folds into the fee", func(t *testing.T) {
		req := base
		req.AmountSat = 9500 // change would be 360 sat

		tx, err := RenderUnsigned(req)
		require.NoError(t, err)
		require.Len(t, tx.TxOut, 1)
		require.Equal(t, int64(9500), tx.TxOut[0].Value)
	})

	t.Run("underfunded request is an encoding failure", func(t *testing.T) {
		req := base
		req.AmountSat = 9900

		_, err := RenderUnsigned(req)
		var encErr *types.EncodingError
		require.ErrorAs(t, err, &encErr)
	})

	t.Run("malformed outpoint is an encoding failure", func(t *testing.T) {
		req := base
		req.Inputs = []types.UnspentOutput{{ID: "nocolon", Satoshis: 10_000}}

		_, err := RenderUnsigned(req)
		var encErr *types.EncodingError
		require.ErrorAs(t, err, &encErr)
	})

	t.Run("near-max amount does not wrap the covering check", func(t *testing.T) {
		req := base
		req.AmountSat = math.MaxUint64

		_, err := RenderUnsigned(req)
		var encErr *types.EncodingError
		require.ErrorAs(t, err, &encErr)
	})
}

func TestRenderPacket(t *testing.T) {
	req := types.BitcoinTransactionRequest{
		Inputs: []types.UnspentOutput{
			{ID: txidA + ":0", Satoshis: 10_000},
			{ID: txidB + ":1", Satoshis: 3000},
		},
		To:            mainnetAddr,
		AmountSat:     11_000,
		ChangeAddress: mainnetAddr,
		SatsPerVByte:  1,
		Network:       types.BitcoinMainnet,
	}

	packet, err := RenderPacket(req)
	require.NoError(t, err)
	require.Len(t, packet.UnsignedTx.TxIn, 2)
	require.Len(t, packet.Inputs, 2)
}

func TestRenderSigningPacket(t *testing.T) {
	ctx := context.Background()

	prevTx := wire.NewMsgTx(wire.TxVersion)
	// A zero-input tx serializes ambiguously with the segwit marker byte and
	// cannot be deserialized, so give the fixture one input.
	prevTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	prevScript := append([]byte{0x00, 0x14}, make([]byte, 20)...)
	prevTx.AddTxOut(wire.NewTxOut(50_000, prevScript))
	prevTx.AddTxOut(wire.NewTxOut(30_000, prevScript))

	var rawPrev bytes.Buffer
	require.NoError(t, prevTx.Serialize(&rawPrev))
	prevTxid := prevTx.TxHash().String()

	req := types.BitcoinTransactionRequest{
		Inputs: []types.UnspentOutput{
			{ID: prevTxid + ":0", Satoshis: 50_000},
			{ID: prevTxid + ":1", Satoshis: 30_000},
		},
		To:            mainnetAddr,
		AmountSat:     40_000,
		ChangeAddress: mainnetAddr,
		SatsPerVByte:  1,
		Network:       types.BitcoinMainnet,
	}

	t.Run("attaches previous transactions fetched once per txid", func(t *testing.T) {
		source := &stubUtxoSource{rawTxs: map[string][]byte{prevTxid: rawPrev.Bytes()}}
		network := NewNetwork(types.BitcoinMainnet, source, &stubFeeProvider{})

		raw, err := network.RenderSigningPacket(ctx, req)
		require.NoError(t, err)
		require.Equal(t, 1, source.rawCalls)

		packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
		require.NoError(t, err)
		require.Len(t, packet.Inputs, 2)
		for _, in := range packet.Inputs {
			require.NotNil(t, in.NonWitnessUtxo)
			require.Equal(t, prevTxid, in.NonWitnessUtxo.TxHash().String())
		}
	})

	t.Run("fetch failure is retryable", func(t *testing.T) {
		source := &stubUtxoSource{rawErr: errors.New("timeout")}
		network := NewNetwork(types.BitcoinMainnet, source, &stubFeeProvider{})

		_, err := network.RenderSigningPacket(ctx, req)
		require.Error(t, err)
		require.True(t, types.IsRetryable(err))
	})
}

// fixed test doubles

type stubUtxoSource struct {
	utxos    []types.UnspentOutput
	err      error
	calls    int
	rawTxs   map[string][]byte
	rawErr   error
	rawCalls int
}

func (s *stubUtxoSource) GetAllUnspent(_ context.Context, _ string) ([]types.UnspentOutput, error) {
	s.calls++
	return s.utxos, s.err
}

func (s *stubUtxoSource) GetRawTransaction(_ context.Context, txHash string) ([]byte, error) {
	s.rawCalls++
	if s.rawErr != nil {
		return nil, s.rawErr
	}
	raw, ok := s.rawTxs[txHash]
	if !ok {
		return nil, fmt.Errorf("unknown tx %s", txHash)
	}
	return raw, nil
}

type stubFeeProvider struct {
	tiers FeeRateTiers
	err   error
}

func (s *stubFeeProvider) FeeRateTiers(_ context.Context) (FeeRateTiers, error) {
	return s.tiers, s.err
}

func TestNetworkPrepareSend(t *testing.T) {
	ctx := context.Background()

	source := &stubUtxoSource{utxos: []types.UnspentOutput{
		{ID: txidA + ":0", Satoshis: 50_000},
		{ID: txidB + ":0", Satoshis: 30_000},
	}}
	fees := &stubFeeProvider{tiers: FeeRateTiers{Fast: 20, Medium: 10, Slow: 2}}
	network := NewNetwork(types.BitcoinMainnet, source, fees)

	req, utxos, err := network.PrepareSend(ctx, mainnetAddr, mainnetAddr, 40_000, types.FeeTierMedium)
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	require.Equal(t, uint64(10), req.SatsPerVByte)
	require.Len(t, req.Inputs, 1)

	t.Run("fee tier change reuses the fetched set", func(t *testing.T) {
		fetchesBefore := source.calls

		reestimated, er := network.PrepareSendWithUnspent(ctx, mainnetAddr, mainnetAddr, 40_000, types.FeeTierFast, utxos)
		require.NoError(t, er)
		require.Equal(t, fetchesBefore, source.calls)
		require.Equal(t, uint64(20), reestimated.SatsPerVByte)
		require.GreaterOrEqual(t, len(reestimated.Inputs), len(req.Inputs))
	})

	t.Run("fee rate failure is retryable", func(t *testing.T) {
		broken := NewNetwork(types.BitcoinMainnet, source, &stubFeeProvider{err: errors.New("timeout")})

		_, _, er := broken.PrepareSend(ctx, mainnetAddr, mainnetAddr, 40_000, types.FeeTierMedium)
		require.Error(t, er)
		require.True(t, types.IsRetryable(er))
	})

	t.Run("insufficiency is not retryable", func(t *testing.T) {
		_, _, er := network.PrepareSend(ctx, mainnetAddr, mainnetAddr, 500_000, types.FeeTierMedium)
		require.Error(t, er)
		require.False(t, types.IsRetryable(er))
		require.True(t, strings.Contains(er.Error(), "insufficient funds"))
	})
}
