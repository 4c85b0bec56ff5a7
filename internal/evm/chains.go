package evm

import (
	"fmt"

	"github.com/vultisig/app-transfer/internal/types"
)

// ChainInfo describes one supported EVM network.
type ChainInfo struct {
	ID             uint64
	Name           string
	DefaultRPC     string
	ExplorerURL    string
	NativeDecimals int
	Testnet        bool
}

var chains = map[types.Chain]ChainInfo{
	types.Ethereum: {
		ID:             1,
		Name:           "Ethereum",
		DefaultRPC:     "https://eth.llamarpc.com",
		ExplorerURL:    "https://etherscan.io",
		NativeDecimals: 18,
	},
	types.Sepolia: {
		ID:             11155111,
		Name:           "Sepolia",
		DefaultRPC:     "https://rpc.sepolia.org",
		ExplorerURL:    "https://sepolia.etherscan.io",
		NativeDecimals: 18,
		Testnet:        true,
	},
	types.Polygon: {
		ID:             137,
		Name:           "Polygon",
		DefaultRPC:     "https://polygon-rpc.com",
		ExplorerURL:    "https://polygonscan.com",
		NativeDecimals: 18,
	},
	types.PolygonAmoy: {
		ID:             80002,
		Name:           "Polygon Amoy",
		DefaultRPC:     "https://rpc-amoy.polygon.technology",
		ExplorerURL:    "https://amoy.polygonscan.com",
		NativeDecimals: 18,
		Testnet:        true,
	},
	types.Arbitrum: {
		ID:             42161,
		Name:           "Arbitrum One",
		DefaultRPC:     "https://arb1.arbitrum.io/rpc",
		ExplorerURL:    "https://arbiscan.io",
		NativeDecimals: 18,
	},
	types.Base: {
		ID:             8453,
		Name:           "Base",
		DefaultRPC:     "https://mainnet.base.org",
		ExplorerURL:    "https://basescan.org",
		NativeDecimals: 18,
	},
	types.Optimism: {
		ID:             10,
		Name:           "Optimism",
		DefaultRPC:     "https://mainnet.optimism.io",
		ExplorerURL:    "https://optimistic.etherscan.io",
		NativeDecimals: 18,
	},
	types.BscChain: {
		ID:             56,
		Name:           "BNB Smart Chain",
		DefaultRPC:     "https://bsc-dataseed.binance.org",
		ExplorerURL:    "https://bscscan.com",
		NativeDecimals: 18,
	},
	types.Avalanche: {
		ID:             43114,
		Name:           "Avalanche C-Chain",
		DefaultRPC:     "https://api.avax.network/ext/bc/C/rpc",
		ExplorerURL:    "https://snowtrace.io",
		NativeDecimals: 18,
	},
}

// SupportedEVMChains returns all EVM chains transfers can be prepared on.
func SupportedEVMChains() []types.Chain {
	return []types.Chain{
		types.Ethereum,
		types.Sepolia,
		types.Polygon,
		types.PolygonAmoy,
		types.Arbitrum,
		types.Base,
		types.Optimism,
		types.BscChain,
		types.Avalanche,
	}
}

// ChainByName looks up the registry entry for a chain.
func ChainByName(chain types.Chain) (ChainInfo, error) {
	info, ok := chains[chain]
	if !ok {
		return ChainInfo{}, fmt.Errorf("not an EVM chain: %s", chain)
	}
	return info, nil
}
