package btc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/vultisig/app-transfer/internal/types"
)

// Params maps a network flag to btcd chain parameters.
func Params(network types.BitcoinNetwork) (*chaincfg.Params, error) {
	switch network {
	case types.BitcoinMainnet:
		return &chaincfg.MainNetParams, nil
	case types.BitcoinTestnet:
		return &chaincfg.TestNet3Params, nil
	case types.BitcoinSignet:
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown bitcoin network: %s", network)
	}
}

// DefaultAPIBase returns the esplora-style API base URL for a network.
func DefaultAPIBase(network types.BitcoinNetwork) string {
	switch network {
	case types.BitcoinTestnet:
		return "https://mempool.space/testnet/api"
	case types.BitcoinSignet:
		return "https://mempool.space/signet/api"
	default:
		return "https://mempool.space/api"
	}
}

// ValidateAddress checks that an address decodes for the given network.
func ValidateAddress(address string, network types.BitcoinNetwork) (btcutil.Address, error) {
	params, err := Params(network)
	if err != nil {
		return nil, err
	}

	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, types.NewInputError("invalid %s address: %s", network, address)
	}
	if !addr.IsForNet(params) {
		return nil, types.NewInputError("address %s is not for network %s", address, network)
	}
	return addr, nil
}
