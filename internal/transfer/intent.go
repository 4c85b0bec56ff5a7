package transfer

import (
	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

// IntentRecord is the flat JSON form of a TransferIntent, shared by the API
// body, the task payload and the storage row. An empty or "native" token
// contract means a native transfer.
type IntentRecord struct {
	Chain         string `json:"chain"`
	From          string `json:"from"`
	To            string `json:"to"`
	Amount        string `json:"amount"`
	TokenContract string `json:"token_contract,omitempty"`
	TokenSymbol   string `json:"token_symbol,omitempty"`
	TokenDecimals int    `json:"token_decimals,omitempty"`
}

// Intent decodes the record into the domain intent, resolving the chain name
// and the native-vs-token asset split.
func (r IntentRecord) Intent() (types.TransferIntent, error) {
	chain, err := types.FromString(r.Chain)
	if err != nil {
		return types.TransferIntent{}, types.NewInputError("%v", err)
	}

	var asset types.Asset = types.NativeAsset{}
	if !util.IsNativeToken(r.TokenContract) {
		asset = types.TokenAsset{Contract: r.TokenContract}
	}

	return types.TransferIntent{
		Chain:         chain,
		From:          r.From,
		To:            r.To,
		Amount:        r.Amount,
		Asset:         asset,
		TokenSymbol:   r.TokenSymbol,
		TokenDecimals: r.TokenDecimals,
	}, nil
}

// RecordFromIntent flattens a domain intent back into its JSON form.
func RecordFromIntent(intent types.TransferIntent) IntentRecord {
	record := IntentRecord{
		Chain:         intent.Chain.String(),
		From:          intent.From,
		To:            intent.To,
		Amount:        intent.Amount,
		TokenSymbol:   intent.TokenSymbol,
		TokenDecimals: intent.TokenDecimals,
	}
	if token, ok := intent.Token(); ok {
		record.TokenContract = token.Contract
	}
	return record
}
