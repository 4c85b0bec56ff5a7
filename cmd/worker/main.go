package main

import (
	"context"
	"net"

	"github.com/DataDog/datadog-go/statsd"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/app-transfer/internal/blockchair"
	"github.com/vultisig/app-transfer/internal/btc"
	"github.com/vultisig/app-transfer/internal/evm"
	"github.com/vultisig/app-transfer/internal/graceful"
	"github.com/vultisig/app-transfer/internal/health"
	"github.com/vultisig/app-transfer/internal/logging"
	"github.com/vultisig/app-transfer/internal/mempool"
	"github.com/vultisig/app-transfer/internal/metrics"
	"github.com/vultisig/app-transfer/internal/solana"
	"github.com/vultisig/app-transfer/internal/store"
	"github.com/vultisig/app-transfer/internal/transfer"
	"github.com/vultisig/app-transfer/internal/types"
	"github.com/vultisig/app-transfer/internal/util"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	sdClient, err := statsd.New(net.JoinHostPort(cfg.DataDog.Host, cfg.DataDog.Port))
	if err != nil {
		logger.Fatalf("failed to initialize StatsD client: %v", err)
	}

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceWorker}, logger)
	defer func() {
		if metricsServer != nil {
			if er := metricsServer.Stop(ctx); er != nil {
				logger.Errorf("failed to stop metrics server: %v", er)
			}
		}
	}()

	if err = store.Migrate(cfg.Postgres.DSN); err != nil {
		logger.Fatalf("failed to migrate storage: %v", err)
	}

	pgPool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to initialize Postgres pool: %v", err)
	}
	defer pgPool.Close()

	evmNetworks := make(map[types.Chain]transfer.EVMPreparer)
	networkConfigs := []struct {
		chain  types.Chain
		rpcURL string
	}{
		{types.Ethereum, cfg.Rpc.Ethereum.URL},
		{types.Sepolia, cfg.Rpc.Sepolia.URL},
		{types.Polygon, cfg.Rpc.Polygon.URL},
		{types.PolygonAmoy, cfg.Rpc.PolygonAmoy.URL},
		{types.Arbitrum, cfg.Rpc.Arbitrum.URL},
		{types.Base, cfg.Rpc.Base.URL},
		{types.Optimism, cfg.Rpc.Optimism.URL},
		{types.BscChain, cfg.Rpc.BSC.URL},
		{types.Avalanche, cfg.Rpc.Avalanche.URL},
	}
	for _, c := range networkConfigs {
		network, er := evm.NewNetwork(ctx, c.chain, c.rpcURL, logger)
		if er != nil {
			logger.Fatalf("failed to initialize %s network: %v", c.chain, er)
		}
		evmNetworks[c.chain] = network
		logger.Infof("initialized %s network", c.chain)
	}

	btcNetworkFlag, err := types.BitcoinNetworkFromString(cfg.Bitcoin.Network)
	if err != nil {
		logger.Fatalf("failed to parse bitcoin network: %v", err)
	}
	btcNetwork := btc.NewNetwork(
		btcNetworkFlag,
		blockchair.NewClient(cfg.Bitcoin.BlockchairURL),
		mempool.NewClient(util.IfEmptyElse(cfg.Bitcoin.MempoolURL, btc.DefaultAPIBase(btcNetworkFlag))),
	)

	solanaNetwork, err := solana.NewNetwork(
		ctx,
		util.IfEmptyElse(cfg.Rpc.Solana.URL, solanarpc.MainNetBeta_RPC),
	)
	if err != nil {
		logger.Fatalf("failed to initialize solana network: %v", err)
	}

	consumer := transfer.NewConsumer(
		logger,
		store.NewStore(pgPool),
		transfer.NewAssembler(evmNetworks, btcNetwork, solanaNetwork),
		sdClient,
		metrics.NewWorkerMetrics(),
	)

	asynqConnOpt, err := asynq.ParseRedisURI(cfg.Redis.URI)
	if err != nil {
		logger.Fatalf("failed to parse redis URI: %v", err)
	}
	asynqServer := asynq.NewServer(
		asynqConnOpt,
		asynq.Config{
			Logger:      logger,
			Concurrency: 10,
			Queues: map[string]int{
				transfer.QueueName: 10,
			},
		},
	)

	go func() {
		sig := <-graceful.MakeSigintChan()
		logger.Infof("received exit signal: %v", sig)
		asynqServer.Shutdown()
		cancel()
	}()

	mux := asynq.NewServeMux()
	mux.HandleFunc(transfer.TypePrepare, consumer.Handle)

	healthServer := health.New(cfg.HealthPort)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthServer.Start(gctx, logger)
	})
	g.Go(func() error {
		return asynqServer.Run(mux)
	})
	err = g.Wait()
	if err != nil {
		logger.Fatalf("failed to run worker: %v", err)
	}
}
