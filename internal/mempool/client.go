// Package mempool reads recommended fee rates from a mempool.space-style API.
package mempool

import (
	"context"
	"fmt"
	"net/http"

	gresty "github.com/go-resty/resty/v2"

	"github.com/vultisig/app-transfer/internal/btc"
	"github.com/vultisig/app-transfer/internal/types"
)

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

type recommendedFees struct {
	FastestFee  uint64 `json:"fastestFee"`
	HalfHourFee uint64 `json:"halfHourFee"`
	HourFee     uint64 `json:"hourFee"`
}

// FeeRateTiers maps the recommended-fees endpoint onto the three speed tiers:
// fastest for fast, half-hour for medium, hour for slow.
func (c *Client) FeeRateTiers(ctx context.Context) (btc.FeeRateTiers, error) {
	var fees recommendedFees
	_, err := c.client.R().
		SetContext(ctx).
		SetResult(&fees).
		Get("/v1/fees/recommended")
	if err != nil {
		return btc.FeeRateTiers{}, types.NewNetworkError("mempool recommended fees", err)
	}

	return btc.FeeRateTiers{
		Fast:   fees.FastestFee,
		Medium: fees.HalfHourFee,
		Slow:   fees.HourFee,
	}, nil
}
