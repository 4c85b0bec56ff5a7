package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/app-transfer/internal/graceful"
	"github.com/vultisig/app-transfer/internal/logging"
	"github.com/vultisig/app-transfer/internal/metrics"
	"github.com/vultisig/app-transfer/internal/server"
	"github.com/vultisig/app-transfer/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP}, logger)
	defer func() {
		if metricsServer != nil {
			if er := metricsServer.Stop(ctx); er != nil {
				logger.Errorf("failed to stop metrics server: %v", er)
			}
		}
	}()

	asynqConnOpt, err := asynq.ParseRedisURI(cfg.Redis.URI)
	if err != nil {
		logger.Fatalf("failed to parse redis URI: %v", err)
	}
	asynqClient := asynq.NewClient(asynqConnOpt)
	defer func() {
		_ = asynqClient.Close()
	}()

	if err = store.Migrate(cfg.Postgres.DSN); err != nil {
		logger.Fatalf("failed to migrate storage: %v", err)
	}

	pgPool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to initialize Postgres pool: %v", err)
	}
	defer pgPool.Close()

	srv, err := server.NewServer(cfg.Port, store.NewStore(pgPool), asynqClient, logger)
	if err != nil {
		logger.Fatalf("failed to create server: %v", err)
	}

	go func() {
		sig := <-graceful.MakeSigintChan()
		logger.Infof("received exit signal: %v", sig)
		cancel()
	}()

	err = srv.Start(ctx)
	if err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}
