package types

import (
	"fmt"
	"strings"
)

// Chain identifies a blockchain the engine can prepare transfers on.
type Chain string

const (
	Ethereum    Chain = "ethereum"
	Sepolia     Chain = "sepolia"
	Polygon     Chain = "polygon"
	PolygonAmoy Chain = "polygon-amoy"
	Arbitrum    Chain = "arbitrum"
	Base        Chain = "base"
	Optimism    Chain = "optimism"
	BscChain    Chain = "bsc"
	Avalanche   Chain = "avalanche"
	Bitcoin     Chain = "bitcoin"
	Solana      Chain = "solana"
)

// ChainKind groups chains by transaction model. The set is closed: every
// supported chain maps to exactly one kind, and dispatch code switches over
// it exhaustively, rejecting anything else as unknown.
type ChainKind string

const (
	KindEVM     ChainKind = "evm"
	KindBitcoin ChainKind = "bitcoin"
	KindSolana  ChainKind = "solana"
)

var chainKinds = map[Chain]ChainKind{
	Ethereum:    KindEVM,
	Sepolia:     KindEVM,
	Polygon:     KindEVM,
	PolygonAmoy: KindEVM,
	Arbitrum:    KindEVM,
	Base:        KindEVM,
	Optimism:    KindEVM,
	BscChain:    KindEVM,
	Avalanche:   KindEVM,
	Bitcoin:     KindBitcoin,
	Solana:      KindSolana,
}

// FromString parses a chain identifier, case-insensitively.
func FromString(s string) (Chain, error) {
	chain := Chain(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := chainKinds[chain]; !ok {
		return "", fmt.Errorf("unknown chain: %s", s)
	}
	return chain, nil
}

func (c Chain) String() string {
	return string(c)
}

// Kind reports the transaction model of the chain. Chains that never passed
// FromString map to the zero kind.
func (c Chain) Kind() ChainKind {
	return chainKinds[c]
}

// SupportedChains returns every chain transfers can be prepared on.
func SupportedChains() []Chain {
	return []Chain{
		Ethereum,
		Sepolia,
		Polygon,
		PolygonAmoy,
		Arbitrum,
		Base,
		Optimism,
		BscChain,
		Avalanche,
		Bitcoin,
		Solana,
	}
}

// BitcoinNetwork selects the address encoding and chain params used for
// Bitcoin transfers.
type BitcoinNetwork string

const (
	BitcoinMainnet BitcoinNetwork = "mainnet"
	BitcoinTestnet BitcoinNetwork = "testnet"
	BitcoinSignet  BitcoinNetwork = "signet"
)

// BitcoinNetworkFromString parses a Bitcoin network flag, case-insensitively.
func BitcoinNetworkFromString(s string) (BitcoinNetwork, error) {
	network := BitcoinNetwork(strings.ToLower(strings.TrimSpace(s)))
	switch network {
	case BitcoinMainnet, BitcoinTestnet, BitcoinSignet:
		return network, nil
	default:
		return "", fmt.Errorf("unknown bitcoin network: %s", s)
	}
}
