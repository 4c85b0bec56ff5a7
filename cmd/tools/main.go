package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
)

var (
	host       = flag.String("host", "http://localhost:8082", "transfer server host")
	flatPreset = flag.String("preset", "", "preset to execute")
)

var presets = map[string]func(context.Context) error{
	"sendEth":    sendEth,
	"sendUsdc":   sendUsdc,
	"sendBtc":    sendBtc,
	"sendSol":    sendSol,
	"listChains": listChains,
}

func main() {
	flag.Parse()

	if *flatPreset == "" {
		panic("preset is required")
	}
	preset, ok := presets[*flatPreset]
	if !ok {
		panic(fmt.Sprintf("unknown preset: %s", *flatPreset))
	}

	ctx := context.Background()
	err := preset(ctx)
	if err != nil {
		panic(err)
	}
}

func createTransfer(body map[string]any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	res, err := http.DefaultClient.Post(
		*host+"/transfers",
		"application/json",
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return fmt.Errorf("failed to make http call: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("%d %s\n", res.StatusCode, resBody)
	return nil
}

func sendEth(_ context.Context) error {
	return createTransfer(map[string]any{
		"chain":  "ethereum",
		"from":   "0xcB9B049B9c937acFDB87EeCfAa9e7f2c51E754f5",
		"to":     "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"amount": "0.01",
	})
}

func sendUsdc(_ context.Context) error {
	return createTransfer(map[string]any{
		"chain":          "ethereum",
		"from":           "0xcB9B049B9c937acFDB87EeCfAa9e7f2c51E754f5",
		"to":             "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"amount":         "25",
		"token_contract": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"token_symbol":   "USDC",
		"token_decimals": 6,
	})
}

func sendBtc(_ context.Context) error {
	return createTransfer(map[string]any{
		"chain":    "bitcoin",
		"from":     "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"to":       "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"amount":   "0.0005",
		"fee_tier": "medium",
	})
}

func sendSol(_ context.Context) error {
	return createTransfer(map[string]any{
		"chain":  "solana",
		"from":   "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
		"to":     "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh1",
		"amount": "0.1",
	})
}

func listChains(_ context.Context) error {
	res, err := http.DefaultClient.Get(*host + "/chains")
	if err != nil {
		return fmt.Errorf("failed to make http call: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("%d %s\n", res.StatusCode, body)
	return nil
}
