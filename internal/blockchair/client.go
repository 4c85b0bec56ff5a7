// Package blockchair fetches Bitcoin address data from the Blockchair API.
package blockchair

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"

	gresty "github.com/go-resty/resty/v2"

	"github.com/vultisig/app-transfer/internal/types"
)

const pageLimit = 50

type Client struct {
	client *gresty.Client
}

func NewClient(baseURL string) *Client {
	client := gresty.New()
	client.SetBaseURL(baseURL)
	client.OnAfterResponse(func(_ *gresty.Client, response *gresty.Response) error {
		if response.StatusCode() >= http.StatusBadRequest {
			return fmt.Errorf(
				"%d from %s %s",
				response.StatusCode(),
				response.Request.Method,
				response.Request.URL,
			)
		}
		return nil
	})
	return &Client{client: client}
}

type utxoItem struct {
	TransactionHash string `json:"transaction_hash"`
	Index           uint32 `json:"index"`
	Value           uint64 `json:"value"`
}

type addressResponse struct {
	Data map[string]struct {
		Utxo []utxoItem `json:"utxo"`
	} `json:"data"`
}

// GetAllUnspent fetches every unspent output owned by address, paging through
// the dashboard endpoint until a short batch arrives.
func (c *Client) GetAllUnspent(ctx context.Context, address string) ([]types.UnspentOutput, error) {
	var unspent []types.UnspentOutput
	offset := 0

	for {
		var batch addressResponse
		_, err := c.client.R().
			SetContext(ctx).
			SetResult(&batch).
			SetQueryParams(map[string]string{
				"offset": fmt.Sprintf("%d", offset),
				"limit":  fmt.Sprintf("0,%d", pageLimit),
			}).
			Get("/bitcoin/dashboards/address/" + address)
		if err != nil {
			return nil, types.NewNetworkError("blockchair address dashboard", err)
		}

		val, ok := batch.Data[address]
		if !ok {
			break
		}

		for _, item := range val.Utxo {
			unspent = append(unspent, types.UnspentOutput{
				ID:       fmt.Sprintf("%s:%d", item.TransactionHash, item.Index),
				Satoshis: item.Value,
			})
		}
		if len(val.Utxo) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return unspent, nil
}

type rawTxResponse struct {
	Data map[string]struct {
		RawTx string `json:"raw_transaction"`
	} `json:"data"`
}

// GetRawTransaction returns the raw serialized bytes of a confirmed
// transaction, used to attach previous-output data when assembling packets.
func (c *Client) GetRawTransaction(ctx context.Context, txHash string) ([]byte, error) {
	var res rawTxResponse
	_, err := c.client.R().
		SetContext(ctx).
		SetResult(&res).
		Get("/bitcoin/raw/transaction/" + txHash)
	if err != nil {
		return nil, types.NewNetworkError("blockchair raw transaction", err)
	}

	data, ok := res.Data[txHash]
	if !ok {
		return nil, types.NewNetworkError(
			"blockchair raw transaction",
			fmt.Errorf("hash %s missing from response", txHash),
		)
	}

	raw, err := hex.DecodeString(data.RawTx)
	if err != nil {
		return nil, types.NewNetworkError("blockchair raw transaction", fmt.Errorf("failed to decode raw tx: %w", err))
	}
	return raw, nil
}
