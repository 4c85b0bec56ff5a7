package util

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/vultisig/app-transfer/internal/types"
)

// NativeDecimals maps chain to native coin decimals
var NativeDecimals = map[types.Chain]int{
	types.Ethereum:    18,
	types.Sepolia:     18,
	types.Polygon:     18,
	types.PolygonAmoy: 18,
	types.Arbitrum:    18,
	types.Base:        18,
	types.Optimism:    18,
	types.BscChain:    18,
	types.Avalanche:   18,
	types.Bitcoin:     8,
	types.Solana:      9,
}

// GetNativeDecimals returns the native coin decimals for a chain
func GetNativeDecimals(chain types.Chain) (int, error) {
	decimals, ok := NativeDecimals[chain]
	if !ok {
		return 0, fmt.Errorf("unknown chain: %s", chain.String())
	}
	return decimals, nil
}

// IsNativeToken checks if the contract address represents a native coin
func IsNativeToken(contract string) bool {
	return contract == "" || strings.EqualFold(contract, "native")
}

// ToBaseUnits converts a human-readable amount to base units,
// e.g. "10" USDC (6 decimals) -> 10000000.
//
// The conversion is pure decimal-string arithmetic: split on the point, pad
// or truncate the fractional part to the decimal count, concatenate. Digits
// beyond the decimal count are dropped, never rounded up, and no step goes
// through a float. Malformed input yields a zero value and an input error.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return new(big.Int), types.NewInputError("amount cannot be empty")
	}
	if decimals < 0 {
		return new(big.Int), types.NewInputError("negative decimals: %d", decimals)
	}

	// Handle negative numbers
	negative := false
	if strings.HasPrefix(amount, "-") {
		negative = true
		amount = amount[1:]
	}

	// Split into whole and fractional parts
	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return new(big.Int), types.NewInputError("invalid amount format: %s", amount)
	}
	whole := parts[0]
	frac := ""
	if len(parts) > 1 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return new(big.Int), types.NewInputError("invalid amount format: %s", amount)
	}

	// Both parts must be pure digit runs before any of the fractional tail
	// is dropped, or garbage past the decimal count would slip through.
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return new(big.Int), types.NewInputError("invalid amount: %s", amount)
			}
		}
	}

	// Pad or truncate fractional part to decimals length
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	// Combine whole and fractional parts
	combined := whole + frac

	// Remove leading zeros (but keep at least one digit)
	combined = strings.TrimLeft(combined, "0")
	if combined == "" {
		combined = "0"
	}

	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return new(big.Int), types.NewInputError("invalid amount: %s", amount)
	}

	if negative {
		result.Neg(result)
	}

	return result, nil
}

// ToBaseUnitsHex converts a human-readable amount to base units rendered as
// a 0x-prefixed big-endian hex string with no excess leading zeros. The
// value stays in arbitrary precision end to end, so token supplies wider
// than any fixed-width integer are safe.
func ToBaseUnitsHex(amount string, decimals int) (string, error) {
	base, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return "0x0", err
	}
	if base.Sign() < 0 {
		return "0x0", types.NewInputError("negative amount: %s", amount)
	}
	return "0x" + base.Text(16), nil
}
