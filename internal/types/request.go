package types

import (
	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
)

// TransactionRequest is a fully parameterized unsigned transaction ready for
// an external signer. The set of implementations is closed, one per
// ChainKind; consumers switch on Kind and treat any other value as a
// programming error. Requests carry no key material and are immutable once
// built.
type TransactionRequest interface {
	Kind() ChainKind
	isTransactionRequest()
}

// EVMTransactionRequest is an EIP-1559 transfer. For token transfers To is
// the contract address, Value is zero and Data carries the encoded call; for
// native transfers To is the recipient and Data is empty.
type EVMTransactionRequest struct {
	ChainID              uint64          `json:"chain_id"`
	Nonce                uint64          `json:"nonce"`
	To                   ecommon.Address `json:"to"`
	Value                *hexutil.Big    `json:"value"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	MaxFeePerGas         uint64          `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas uint64          `json:"max_priority_fee_per_gas"`
	GasLimit             uint64          `json:"gas_limit"`
}

func (EVMTransactionRequest) Kind() ChainKind { return KindEVM }
func (EVMTransactionRequest) isTransactionRequest() {}

// SolanaTransactionRequest is a single-instruction transfer pinned to a
// recent blockhash. A zero Mint means a native SOL transfer and Amount is in
// lamports; a set Mint makes it an SPL token transfer between the associated
// token accounts of From and Recipient, with Amount in token base units.
type SolanaTransactionRequest struct {
	From            solana.PublicKey `json:"from"`
	Recipient       solana.PublicKey `json:"recipient"`
	Amount          uint64           `json:"amount"`
	RecentBlockhash solana.Hash      `json:"recent_blockhash"`
	Mint            solana.PublicKey `json:"mint,omitempty"`
	TokenProgram    solana.PublicKey `json:"token_program,omitempty"`
}

func (SolanaTransactionRequest) Kind() ChainKind { return KindSolana }
func (SolanaTransactionRequest) isTransactionRequest() {}

// BitcoinTransactionRequest spends Inputs to the recipient, with any
// remainder above the dust threshold returned to ChangeAddress. The inputs
// were selected so their sum covers AmountSat plus the fee at SatsPerVByte.
type BitcoinTransactionRequest struct {
	Inputs        []UnspentOutput `json:"inputs"`
	To            string          `json:"to"`
	AmountSat     uint64          `json:"amount_sat"`
	ChangeAddress string          `json:"change_address"`
	SatsPerVByte  uint64          `json:"sats_per_vbyte"`
	Network       BitcoinNetwork  `json:"network"`
}

func (BitcoinTransactionRequest) Kind() ChainKind { return KindBitcoin }
func (BitcoinTransactionRequest) isTransactionRequest() {}
