package evm

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/app-transfer/internal/types"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestEncodeTransfer(t *testing.T) {
	recipient := "0xcB9B049B9c937acFDB87EeCfAa9e7f2c51E754f5"

	t.Run("output is exactly 68 bytes with the transfer selector", func(t *testing.T) {
		data, err := EncodeTransfer(recipient, "0x1")
		require.NoError(t, err)
		require.Len(t, data, 68)
		require.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	})

	t.Run("prefix and case do not change the output", func(t *testing.T) {
		want, err := EncodeTransfer(strings.ToLower(recipient), "0x1")
		require.NoError(t, err)

		noPrefix, err := EncodeTransfer(strings.ToLower(recipient)[2:], "1")
		require.NoError(t, err)
		require.Equal(t, want, noPrefix)

		mixedCase, err := EncodeTransfer(recipient, "0x1")
		require.NoError(t, err)
		require.Equal(t, want, mixedCase)
	})

	t.Run("address and amount are left-padded ABI words", func(t *testing.T) {
		data, err := EncodeTransfer(recipient, "0x1")
		require.NoError(t, err)

		addrWord := data[4:36]
		require.Equal(t, make([]byte, 12), addrWord[:12])
		require.Equal(t, strings.ToLower(recipient)[2:], hex.EncodeToString(addrWord[12:]))

		amountWord := data[36:68]
		require.Equal(t, make([]byte, 31), amountWord[:31])
		require.Equal(t, byte(1), amountWord[31])
	})

	t.Run("matches the canonical ABI packing", func(t *testing.T) {
		const erc20ABI = `[{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`
		parsed, err := abi.JSON(strings.NewReader(erc20ABI))
		require.NoError(t, err)

		amount := big.NewInt(1_500_000)
		want, err := parsed.Pack("transfer", ecommon.HexToAddress(recipient), amount)
		require.NoError(t, err)

		got, err := EncodeTransfer(recipient, "0x"+amount.Text(16))
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("bad checksum is rejected", func(t *testing.T) {
		// Lower-case one checksum-bearing character.
		broken := "0xcb9B049B9c937acFDB87EeCfAa9e7f2c51E754f5"
		_, err := EncodeTransfer(broken, "0x1")

		var encErr *types.EncodingError
		require.ErrorAs(t, err, &encErr)
		require.Contains(t, encErr.Error(), "EIP-55")
	})

	t.Run("non-hex input fails with no partial output", func(t *testing.T) {
		data, err := EncodeTransfer("0xzz9B049B9c937acFDB87EeCfAa9e7f2c51E754f5", "0x1")
		require.Error(t, err)
		require.Nil(t, data)

		data, err = EncodeTransfer(recipient, "0xnothex")
		require.Error(t, err)
		require.Nil(t, data)
	})

	t.Run("short address is rejected", func(t *testing.T) {
		_, err := EncodeTransfer("0xabc", "0x1")
		require.Error(t, err)
	})
}

func TestComputeQuote(t *testing.T) {
	t.Run("doubles the base fee and adds the priority fee", func(t *testing.T) {
		quote, err := computeQuote(100, 7, 21_000, 3)
		require.NoError(t, err)
		require.Equal(t, uint64(207), quote.MaxFeePerGas)
		require.Equal(t, uint64(7), quote.MaxPriorityFeePerGas)
		require.Equal(t, uint64(21_000), quote.GasLimit)
		require.Equal(t, uint64(3), quote.Nonce)
		require.Equal(t, uint64(207*21_000), quote.WorstCaseFee)
	})

	t.Run("base fee at 2^63 overflows the doubling", func(t *testing.T) {
		_, err := computeQuote(1<<63, 1<<63, 21_000, 0)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrUnreasonableFeeData)
		require.True(t, types.IsRetryable(err))
	})

	t.Run("addition overflow is detected", func(t *testing.T) {
		_, err := computeQuote(math.MaxUint64/2, math.MaxUint64, 1, 0)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrUnreasonableFeeData)
	})

	t.Run("worst-case multiplication overflow is detected", func(t *testing.T) {
		_, err := computeQuote(math.MaxUint64/4, 0, 1<<32, 0)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrUnreasonableFeeData)
	})
}

// mockRPC implements rpcCaller and contractCaller for tests.
type mockRPC struct {
	baseFee     *big.Int
	reward      *big.Int
	tipCap      *big.Int
	gasLimit    uint64
	nonce       uint64
	callResult  []byte
	feeHistErr  error
	estimateErr error

	estimatedMsg ethereum.CallMsg
}

func (m *mockRPC) FeeHistory(_ context.Context, _ uint64, _ *big.Int, _ []float64) (*ethereum.FeeHistory, error) {
	if m.feeHistErr != nil {
		return nil, m.feeHistErr
	}
	history := &ethereum.FeeHistory{
		BaseFee: []*big.Int{m.baseFee},
	}
	if m.reward != nil {
		history.Reward = [][]*big.Int{{m.reward}}
	}
	return history, nil
}

func (m *mockRPC) SuggestGasTipCap(_ context.Context) (*big.Int, error) {
	return m.tipCap, nil
}

func (m *mockRPC) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	if m.estimateErr != nil {
		return 0, m.estimateErr
	}
	m.estimatedMsg = msg
	return m.gasLimit, nil
}

func (m *mockRPC) PendingNonceAt(_ context.Context, _ ecommon.Address) (uint64, error) {
	return m.nonce, nil
}

func (m *mockRPC) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return m.callResult, nil
}

func TestFeeServiceEstimate(t *testing.T) {
	ctx := context.Background()
	from := ecommon.HexToAddress("0x1111111111111111111111111111111111111111")
	to := ecommon.HexToAddress("0x2222222222222222222222222222222222222222")

	t.Run("combines history, gas estimate and nonce", func(t *testing.T) {
		rpc := &mockRPC{
			baseFee:  big.NewInt(30_000_000_000),
			reward:   big.NewInt(1_000_000_000),
			gasLimit: 21_000,
			nonce:    12,
		}
		svc := newFeeService(rpc)

		quote, err := svc.Estimate(ctx, from, to, big.NewInt(1), nil)
		require.NoError(t, err)
		require.Equal(t, uint64(61_000_000_000), quote.MaxFeePerGas)
		require.Equal(t, uint64(1_000_000_000), quote.MaxPriorityFeePerGas)
		require.Equal(t, uint64(12), quote.Nonce)
	})

	t.Run("falls back to suggested tip when rewards are empty", func(t *testing.T) {
		rpc := &mockRPC{
			baseFee:  big.NewInt(100),
			tipCap:   big.NewInt(5),
			gasLimit: 21_000,
		}
		svc := newFeeService(rpc)

		quote, err := svc.Estimate(ctx, from, to, big.NewInt(1), nil)
		require.NoError(t, err)
		require.Equal(t, uint64(205), quote.MaxFeePerGas)
	})

	t.Run("base fee beyond uint64 is unreasonable", func(t *testing.T) {
		tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
		rpc := &mockRPC{
			baseFee:  tooBig,
			reward:   big.NewInt(1),
			gasLimit: 21_000,
		}
		svc := newFeeService(rpc)

		_, err := svc.Estimate(ctx, from, to, big.NewInt(1), nil)
		require.ErrorIs(t, err, ErrUnreasonableFeeData)
	})

	t.Run("rpc failure is a retryable network error", func(t *testing.T) {
		rpc := &mockRPC{feeHistErr: errors.New("connection refused")}
		svc := newFeeService(rpc)

		_, err := svc.Estimate(ctx, from, to, big.NewInt(1), nil)
		require.Error(t, err)
		require.True(t, types.IsRetryable(err))
	})
}

func TestSendServiceGasTarget(t *testing.T) {
	ctx := context.Background()
	from := ecommon.HexToAddress("0x1111111111111111111111111111111111111111")
	to := ecommon.HexToAddress("0x2222222222222222222222222222222222222222")
	token := ecommon.HexToAddress("0x3333333333333333333333333333333333333333")

	t.Run("native transfer simulates against the recipient", func(t *testing.T) {
		rpc := &mockRPC{baseFee: big.NewInt(100), reward: big.NewInt(1), gasLimit: 21_000}
		svc := newSendService(ChainInfo{ID: 1, NativeDecimals: 18}, newFeeService(rpc), newTestLogger())

		req, err := svc.BuildNativeTransfer(ctx, from, to, big.NewInt(1_000))
		require.NoError(t, err)
		require.Equal(t, to, *rpc.estimatedMsg.To)
		require.Equal(t, big.NewInt(1_000), rpc.estimatedMsg.Value)
		require.Empty(t, rpc.estimatedMsg.Data)

		require.Equal(t, to, req.To)
		require.Equal(t, uint64(1), req.ChainID)
		require.Empty(t, req.Data)
	})

	t.Run("token transfer simulates against the contract with zero value", func(t *testing.T) {
		rpc := &mockRPC{baseFee: big.NewInt(100), reward: big.NewInt(1), gasLimit: 65_000}
		svc := newSendService(ChainInfo{ID: 1, NativeDecimals: 18}, newFeeService(rpc), newTestLogger())

		req, err := svc.BuildTokenTransfer(ctx, token, from, to, "0xf4240")
		require.NoError(t, err)
		require.Equal(t, token, *rpc.estimatedMsg.To)
		require.Equal(t, big.NewInt(0), rpc.estimatedMsg.Value)
		require.Len(t, rpc.estimatedMsg.Data, 68)

		require.Equal(t, token, req.To)
		require.Len(t, req.Data, 68)
		require.Equal(t, uint64(0), (*big.Int)(req.Value).Uint64())
	})
}

func TestDecimalsService(t *testing.T) {
	ctx := context.Background()
	token := ecommon.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")

	word := make([]byte, 32)
	word[31] = 6
	svc := newDecimalsService(&mockRPC{callResult: word})

	decimals, err := svc.GetDecimals(ctx, token)
	require.NoError(t, err)
	require.Equal(t, uint8(6), decimals)

	_, err = svc.GetDecimals(ctx, ecommon.Address{})
	require.Error(t, err)
}

func TestChainRegistry(t *testing.T) {
	ids := map[types.Chain]uint64{
		types.Ethereum:    1,
		types.Sepolia:     11155111,
		types.Polygon:     137,
		types.PolygonAmoy: 80002,
		types.Arbitrum:    42161,
		types.Base:        8453,
		types.Optimism:    10,
		types.BscChain:    56,
		types.Avalanche:   43114,
	}

	for _, chain := range SupportedEVMChains() {
		t.Run(chain.String(), func(t *testing.T) {
			info, err := ChainByName(chain)
			require.NoError(t, err)
			require.Equal(t, ids[chain], info.ID)
			require.Equal(t, 18, info.NativeDecimals)
			require.NotEmpty(t, info.DefaultRPC)
		})
	}

	_, err := ChainByName(types.Bitcoin)
	require.Error(t, err)
}

func TestRenderUnsigned(t *testing.T) {
	to := ecommon.HexToAddress("0x2222222222222222222222222222222222222222")
	req := types.EVMTransactionRequest{
		ChainID:              1,
		Nonce:                7,
		To:                   to,
		Value:                (*hexutil.Big)(big.NewInt(1_000)),
		MaxFeePerGas:         61_000_000_000,
		MaxPriorityFeePerGas: 1_000_000_000,
		GasLimit:             21_000,
	}

	raw, err := RenderUnsigned(req)
	require.NoError(t, err)

	var tx gethtypes.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	require.Equal(t, uint8(gethtypes.DynamicFeeTxType), tx.Type())
	require.Equal(t, uint64(7), tx.Nonce())
	require.Equal(t, to, *tx.To())
	require.Equal(t, big.NewInt(1_000), tx.Value())
	require.Equal(t, uint64(21_000), tx.Gas())
	require.Equal(t, big.NewInt(61_000_000_000), tx.GasFeeCap())
}
