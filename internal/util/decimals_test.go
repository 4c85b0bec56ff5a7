package util

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vultisig/app-transfer/internal/types"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"one and a half ether", "1.5", 18, "1500000000000000000"},
		{"single wei", "0.000000000000000001", 18, "1"},
		{"ten usdc", "10", 6, "10000000"},
		{"whole bitcoin", "1", 8, "100000000"},
		{"dust beyond decimals is truncated", "0.0000000000000000019", 18, "1"},
		{"fraction truncated at zero decimals", "1.9", 0, "1"},
		{"sub-unit rounds to zero", "0.5", 0, "0"},
		{"wider than uint64", "123456789.123456789123456789", 18, "123456789123456789123456789"},
		{"leading zeros stripped", "007", 0, "7"},
		{"zero", "0", 18, "0"},
		{"negative keeps sign", "-1.5", 2, "-150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestToBaseUnitsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
	}{
		{"empty", "", 18},
		{"two points", "1.2.3", 18},
		{"letters", "abc", 18},
		{"comma separator", "1,5", 18},
		{"negative decimals", "1", -1},
		{"garbage after truncated fraction", "1.5x", 1},
		{"exponent beyond decimal count", "1.23e4", 2},
		{"dot only", ".", 18},
		{"bare minus", "-", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			require.Error(t, err)

			var inputErr *types.InputError
			require.True(t, errors.As(err, &inputErr), "converter failures must be input errors")

			// Failure still hands back a usable zero, never nil.
			require.NotNil(t, got)
			require.Zero(t, got.Sign())
		})
	}
}

// Cross-checks the string arithmetic against an independent arbitrary
// precision computation: amount * 10^decimals truncated toward zero.
func TestToBaseUnitsMatchesExactScaling(t *testing.T) {
	amounts := []string{"0", "1", "1.5", "0.1", "123.000456", "999999999999.999999999999999999", "0.000000000000000001"}
	decimalCounts := []int{0, 6, 8, 9, 18}

	for _, amount := range amounts {
		for _, decimals := range decimalCounts {
			got, err := ToBaseUnits(amount, decimals)
			require.NoError(t, err)

			rat, ok := new(big.Rat).SetString(amount)
			require.True(t, ok)
			scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
			rat.Mul(rat, new(big.Rat).SetInt(scale))
			want := new(big.Int).Quo(rat.Num(), rat.Denom())

			require.Equal(t, want.String(), got.String(),
				"amount %s at %d decimals", amount, decimals)
		}
	}
}

func TestToBaseUnitsHex(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"one ether in wei", "1", 18, "0xde0b6b3a7640000"},
		{"small value", "255", 0, "0xff"},
		{"single unit", "0.000001", 6, "0x1"},
		{"zero", "0", 18, "0x0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnitsHex(tt.amount, tt.decimals)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := ToBaseUnitsHex("-1", 18)
		require.Error(t, err)
	})

	t.Run("invalid amount yields zero hex", func(t *testing.T) {
		got, err := ToBaseUnitsHex("not-a-number", 18)
		require.Error(t, err)
		require.Equal(t, "0x0", got)
	})
}

func TestGetNativeDecimals(t *testing.T) {
	for _, chain := range types.SupportedChains() {
		t.Run(chain.String(), func(t *testing.T) {
			decimals, err := GetNativeDecimals(chain)
			require.NoError(t, err)
			require.Greater(t, decimals, 0)
		})
	}

	t.Run("unknown chain", func(t *testing.T) {
		_, err := GetNativeDecimals(types.Chain("dogecoin"))
		require.Error(t, err)
	})
}

func TestToDisplay(t *testing.T) {
	require.InDelta(t, 1.5, float64(ToDisplay(1500000000000000000, 18)), 1e-9)
	require.InDelta(t, 0.00014, float64(ToDisplay(14000, 8)), 1e-12)
	require.Equal(t, "1.5", ToDisplay(1500000000000000000, 18).String())
}
