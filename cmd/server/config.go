package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/app-transfer/internal/logging"
	"github.com/vultisig/app-transfer/internal/metrics"
)

type config struct {
	Port      int               `envconfig:"PORT" default:"8082"`
	LogFormat logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	Postgres  postgres
	Redis     redis
	Metrics   metrics.Config
}

type postgres struct {
	DSN string `envconfig:"POSTGRES_DSN" required:"true"`
}

type redis struct {
	URI string `envconfig:"REDIS_URI" default:"redis://localhost:6379"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
