package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/app-transfer/internal/logging"
	"github.com/vultisig/app-transfer/internal/metrics"
)

type config struct {
	LogFormat  logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	HealthPort int               `envconfig:"HEALTH_PORT" default:"8085"`
	Postgres   postgres
	Redis      redis
	DataDog    dataDog
	Metrics    metrics.Config
	Rpc        rpc
	Bitcoin    bitcoin
}

type postgres struct {
	DSN string `envconfig:"POSTGRES_DSN" required:"true"`
}

type redis struct {
	URI string `envconfig:"REDIS_URI" default:"redis://localhost:6379"`
}

type dataDog struct {
	Host string `default:"localhost"`
	Port string `default:"8125"`
}

type rpc struct {
	Ethereum    rpcItem
	Sepolia     rpcItem
	Polygon     rpcItem
	PolygonAmoy rpcItem
	Arbitrum    rpcItem
	Base        rpcItem
	Optimism    rpcItem
	BSC         rpcItem
	Avalanche   rpcItem
	Solana      rpcItem
}

type rpcItem struct {
	URL string
}

type bitcoin struct {
	Network       string `envconfig:"BITCOIN_NETWORK" default:"mainnet"`
	BlockchairURL string `envconfig:"BITCOIN_BLOCKCHAIR_URL" default:"https://api.blockchair.com"`
	MempoolURL    string `envconfig:"BITCOIN_MEMPOOL_URL" default:""`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
