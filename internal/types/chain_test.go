package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    Chain
		wantErr bool
	}{
		{"ethereum", Ethereum, false},
		{"Ethereum", Ethereum, false},
		{"BITCOIN", Bitcoin, false},
		{" solana ", Solana, false},
		{"polygon-amoy", PolygonAmoy, false},
		{"bsc", BscChain, false},
		{"dogecoin", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := FromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestChainKind(t *testing.T) {
	tests := []struct {
		chain Chain
		want  ChainKind
	}{
		{Ethereum, KindEVM},
		{Sepolia, KindEVM},
		{Polygon, KindEVM},
		{PolygonAmoy, KindEVM},
		{Arbitrum, KindEVM},
		{Base, KindEVM},
		{Optimism, KindEVM},
		{BscChain, KindEVM},
		{Avalanche, KindEVM},
		{Bitcoin, KindBitcoin},
		{Solana, KindSolana},
	}

	for _, tt := range tests {
		t.Run(tt.chain.String(), func(t *testing.T) {
			require.Equal(t, tt.want, tt.chain.Kind())
		})
	}
}

func TestSupportedChainsHaveKinds(t *testing.T) {
	for _, chain := range SupportedChains() {
		t.Run(chain.String(), func(t *testing.T) {
			require.NotEmpty(t, chain.Kind(), "chain %s must map to a kind", chain)
		})
	}
}

func TestBitcoinNetworkFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    BitcoinNetwork
		wantErr bool
	}{
		{"mainnet", BitcoinMainnet, false},
		{"Testnet", BitcoinTestnet, false},
		{"SIGNET", BitcoinSignet, false},
		{"regtest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := BitcoinNetworkFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
