package btc

import (
	"fmt"

	"github.com/vultisig/app-transfer/internal/types"
)

type sendService struct {
	network types.BitcoinNetwork
}

func newSendService(network types.BitcoinNetwork) *sendService {
	return &sendService{
		network: network,
	}
}

// BuildTransfer validates the parties and packages a selection into an
// immutable request. Change goes back to the sender.
func (s *sendService) BuildTransfer(
	toAddress string,
	fromAddress string,
	amountSat uint64,
	selection Selection,
	satsPerVByte uint64,
) (types.BitcoinTransactionRequest, error) {
	if amountSat == 0 {
		return types.BitcoinTransactionRequest{}, types.NewInputError("amount must be positive")
	}

	if _, err := ValidateAddress(toAddress, s.network); err != nil {
		return types.BitcoinTransactionRequest{}, fmt.Errorf("failed to validate recipient: %w", err)
	}
	if _, err := ValidateAddress(fromAddress, s.network); err != nil {
		return types.BitcoinTransactionRequest{}, fmt.Errorf("failed to validate change address: %w", err)
	}

	return types.BitcoinTransactionRequest{
		Inputs:        selection.Inputs,
		To:            toAddress,
		AmountSat:     amountSat,
		ChangeAddress: fromAddress,
		SatsPerVByte:  satsPerVByte,
		Network:       s.network,
	}, nil
}
