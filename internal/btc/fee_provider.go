package btc

import (
	"context"

	"github.com/vultisig/app-transfer/internal/types"
)

// FeeRateTiers is one fee-rate quote per speed tier, in satoshis per virtual
// byte.
type FeeRateTiers struct {
	Fast   uint64
	Medium uint64
	Slow   uint64
}

// Rate returns the rate for a tier.
func (t FeeRateTiers) Rate(tier types.FeeTier) uint64 {
	switch tier {
	case types.FeeTierFast:
		return t.Fast
	case types.FeeTierSlow:
		return t.Slow
	default:
		return t.Medium
	}
}

type feeProvider interface {
	FeeRateTiers(ctx context.Context) (FeeRateTiers, error)
}
