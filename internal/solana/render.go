package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/vultisig/app-transfer/internal/types"
)

// RenderUnsigned serializes a prepared request into unsigned transaction
// bytes for the signing hand-off. Native requests become a single system
// transfer; token requests become a single SPL transfer between associated
// token accounts.
func RenderUnsigned(req types.SolanaTransactionRequest) ([]byte, error) {
	var instruction solana.Instruction
	if req.Mint.IsZero() {
		instruction = system.NewTransferInstruction(
			req.Amount,
			req.From,
			req.Recipient,
		).Build()
	} else {
		inst, err := buildTokenTransferInstruction(req)
		if err != nil {
			return nil, err
		}
		instruction = inst
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		req.RecentBlockhash,
		solana.TransactionPayer(req.From),
	)
	if err != nil {
		return nil, types.NewEncodingError("solana: failed to create transaction: %v", err)
	}

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return nil, types.NewEncodingError("solana: failed to marshal transaction: %v", err)
	}

	return txBytes, nil
}

func buildTokenTransferInstruction(req types.SolanaTransactionRequest) (solana.Instruction, error) {
	sourceATA, _, err := FindAssociatedTokenAddress(req.From, req.Mint, req.TokenProgram)
	if err != nil {
		return nil, fmt.Errorf("failed to find source ATA: %w", err)
	}

	destATA, _, err := FindAssociatedTokenAddress(req.Recipient, req.Mint, req.TokenProgram)
	if err != nil {
		return nil, fmt.Errorf("failed to find destination ATA: %w", err)
	}

	// Transfer instruction data: discriminator (1 byte) + amount (8 bytes little-endian)
	data := make([]byte, 9)
	data[0] = 3 // Transfer instruction discriminator
	binary.LittleEndian.PutUint64(data[1:], req.Amount)

	return solana.NewInstruction(
		req.TokenProgram,
		[]*solana.AccountMeta{
			{PublicKey: sourceATA, IsSigner: false, IsWritable: true},
			{PublicKey: destATA, IsSigner: false, IsWritable: true},
			{PublicKey: req.From, IsSigner: true, IsWritable: false},
		},
		data,
	), nil
}
