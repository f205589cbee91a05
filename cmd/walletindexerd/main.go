// Command walletindexerd runs the wallet indexing synchronizer: it
// connects to a bitcoind node, keeps a local header and coin index in
// sync with the node's best chain, and tracks the node's mempool
// between blocks.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/walletcore/chainsync/internal/bitcoin"
	"github.com/walletcore/chainsync/internal/config"
	"github.com/walletcore/chainsync/internal/events"
	"github.com/walletcore/chainsync/internal/metrics"
	"github.com/walletcore/chainsync/internal/storage"
	"github.com/walletcore/chainsync/internal/storage/boltstore"
	"github.com/walletcore/chainsync/internal/storage/leveldbstore"
	"github.com/walletcore/chainsync/internal/storage/memstore"
	"github.com/walletcore/chainsync/internal/syncer"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the TOML configuration file",
		Value:   "walletindexerd.toml",
		EnvVars: []string{"WALLETINDEXERD_CONFIG"},
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:    "metrics-addr",
		Usage:   "listen address for the /metrics endpoint",
		Value:   "127.0.0.1:9090",
		EnvVars: []string{"WALLETINDEXERD_METRICS_ADDR"},
	}
	rpcRateFlag = &cli.Float64Flag{
		Name:  "rpc-rate",
		Usage: "outbound node RPC calls allowed per second",
		Value: 20,
	}
	rpcBurstFlag = &cli.IntFlag{
		Name:  "rpc-burst",
		Usage: "outbound node RPC calls allowed to burst above rpc-rate",
		Value: 5,
	}
)

func main() {
	app := &cli.App{
		Name:  "walletindexerd",
		Usage: "header/coin-index synchronizer for a bitcoind-compatible node",
		Flags:  []cli.Flag{configFlag, metricsAddrFlag, rpcRateFlag, rpcBurstFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}
	net, err := cfg.Network()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rpc := bitcoin.NewRPCClient(cfg.RPCURL(), cfg.Bitcoind.User, cfg.Bitcoind.Password,
		c.Float64(rpcRateFlag.Name), c.Int(rpcBurstFlag.Name))

	pub := events.New()
	pub.OnTouchedAddress(func(addr string) {
		metrics.TouchedAddressesTotal.Inc()
		logger.Debug("touched address", zap.String("address", addr))
	})

	sync := syncer.New(rpc, store, net, pub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sync.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, finishing current block")
		sync.RequestStop()
	}()

	metricsSrv := &http.Server{Addr: c.String(metricsAddrFlag.Name), Handler: metrics.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	defer metricsSrv.Close()

	logger.Info("walletindexerd starting",
		zap.String("network", net.String()),
		zap.String("storage", cfg.Server.Storage),
		zap.String("rpc_url", cfg.RPCURL()),
	)
	sync.Run(ctx)
	logger.Info("walletindexerd stopped")
	return nil
}

func openStore(cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Server.Storage {
	case "bolt":
		return boltstore.Open("walletindexer.bolt", logger)
	case "leveldb":
		return leveldbstore.Open("walletindexer.leveldb")
	case "memory":
		return memstore.New(), nil
	default:
		return nil, cfg.ValidateStorage()
	}
}
