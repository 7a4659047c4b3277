package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bridgeWatch/internal/chain"
	"bridgeWatch/internal/config"
	"bridgeWatch/internal/events"
	"bridgeWatch/internal/indexer"
	"bridgeWatch/internal/metrics"
	"bridgeWatch/internal/storage"
	"bridgeWatch/internal/storage/postgres"
	"bridgeWatch/internal/watcher"
)

func main() {
	root := &cobra.Command{
		Use:          "bridgewatch",
		Short:        "Finality-verified EVM bridge event watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Scan finalized blocks for bridge actions",
		RunE:  runWatcher,
	}

	runCmd.Flags().String("rpc", "", "EVM RPC URL")
	runCmd.Flags().Float64("rpc-rps", 0, "maximum RPC requests per second, 0 means unlimited")
	runCmd.Flags().Int("rpc-burst", 10, "RPC request burst size")
	runCmd.Flags().String("address", "", "bridge contract address")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means finalized head")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	runCmd.Flags().String("out", "./data/actions.jsonl", "output JSONL path")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN; when set actions and checkpoints go to Postgres")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts for transient errors")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().Duration("poll-interval", 12*time.Second, "finalized height poll interval in follow mode")
	runCmd.Flags().Bool("follow", false, "keep polling for newly finalized blocks")
	runCmd.Flags().Uint64("expected-chain-id", 0, "fail if the provider reports a different chain id")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	runCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	actionCmd := &cobra.Command{
		Use:   "action",
		Short: "Look up the finalized bridge action at a transaction position",
		RunE:  runAction,
	}

	actionCmd.Flags().String("rpc", "", "EVM RPC URL")
	actionCmd.Flags().String("tx", "", "transaction hash")
	actionCmd.Flags().Uint64("index", 0, "event index within the transaction")
	actionCmd.Flags().Uint64("expected-chain-id", 0, "fail if the provider reports a different chain id")
	actionCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	actionCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(actionCmd)

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the provider's chain id, head and finalized height",
		RunE:  runDescribe,
	}

	describeCmd.Flags().String("rpc", "", "EVM RPC URL")
	describeCmd.Flags().Uint64("expected-chain-id", 0, "fail if the provider reports a different chain id")
	describeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(describeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatcher(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	address, err := indexer.ParseAddress(cfg.Address)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()
	chainClient.SetRateLimit(cfg.RPCRateLimit, cfg.RPCBurst)

	client, err := newWatcherClient(chainClient, cfg.Topic0Map, logger)
	if err != nil {
		return err
	}

	var (
		sink       storage.Storage
		checkpoint indexer.CheckpointStore
	)
	if cfg.PGDSN != "" {
		store, err := postgres.Open(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		sink = store
		if cfg.CheckpointEnabled {
			checkpoint = &indexer.DBCheckpointStore{Store: store, Name: "bridgewatch:" + address.Hex()}
		}
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
		checkpoint = indexer.NewFileCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)

		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		Address:         address,
		FromBlock:       cfg.FromBlock,
		ToBlock:         cfg.ToBlock,
		BatchSize:       cfg.BatchSize,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
		Follow:          cfg.Follow,
		PollInterval:    cfg.PollInterval,
		ExpectedChainID: cfg.ExpectedChainID,
	}, client, sink, checkpoint, m, logger)

	logger.Info("watcher start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("address", address.Hex()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("follow", cfg.Follow),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("watcher stopped")
		return nil
	}
	return err
}

func newWatcherClient(provider watcher.Provider, topic0Map map[string]string, logger *zap.Logger) (*watcher.Client, error) {
	decoder, err := events.NewDecoder(events.DecoderConfig{Topic0Map: topic0Map, Logger: logger})
	if err != nil {
		return nil, err
	}
	return watcher.NewClient(provider, decoder, events.NewExtractor(), logger), nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	logger.Info("metrics enabled", zap.String("addr", addr))
	return srv
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
