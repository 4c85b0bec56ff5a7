package types

// UnspentOutput is one spendable Bitcoin output as reported by the UTXO
// source. ID is the outpoint in "txid:vout" form.
type UnspentOutput struct {
	ID       string `json:"id"`
	Satoshis uint64 `json:"satoshis"`
}
