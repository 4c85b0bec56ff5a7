package types

// Asset selects what a transfer moves: the chain's native coin or a token
// managed by a contract. The two cases are distinct types so token-only
// branches cannot be reached with a missing contract address.
type Asset interface {
	isAsset()
}

// NativeAsset is the chain's base coin (ETH, BTC, SOL, ...).
type NativeAsset struct{}

// TokenAsset is a contract-managed fungible token. Contract holds the ERC-20
// contract address on EVM chains and the SPL mint address on Solana.
type TokenAsset struct {
	Contract string
}

func (NativeAsset) isAsset() {}
func (TokenAsset) isAsset()  {}

// TransferIntent describes what the user wants to move. It is created once
// by the caller and never mutated; re-estimation re-reads the same intent.
type TransferIntent struct {
	Chain         Chain
	From          string
	To            string
	Amount        string // human-readable decimal string, e.g. "1.5"
	Asset         Asset
	TokenSymbol   string
	TokenDecimals int
}

// Token returns the token asset and true when the intent moves a token
// rather than the native coin.
func (t TransferIntent) Token() (TokenAsset, bool) {
	token, ok := t.Asset.(TokenAsset)
	return token, ok
}
