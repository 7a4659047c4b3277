package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bridgeWatch/internal/chain"
	"bridgeWatch/internal/config"
	"bridgeWatch/internal/indexer"
	"bridgeWatch/internal/watcher"
)

func runAction(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAction(cfgFile, cmd.Flags())
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
	txHash, err := indexer.ParseTxHash(cfg.TxHash)
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

	client, err := newWatcherClient(chainClient, cfg.Topic0Map, logger)
	if err != nil {
		return err
	}
	if err := client.Describe(ctx, cfg.ExpectedChainID); err != nil {
		return err
	}

	action, err := client.FinalizedActionFor(ctx, txHash, cfg.EventIndex)
	if err != nil {
		logger.Warn("no finalized action",
			zap.String("tx_hash", txHash.Hex()),
			zap.Uint16("event_index", cfg.EventIndex),
			zap.String("kind", watcher.KindOf(err).String()),
			zap.Bool("retryable", watcher.IsRetryable(err)),
			zap.Error(err),
		)
		return err
	}

	out := struct {
		ActionType string      `json:"action_type"`
		Action     interface{} `json:"action"`
	}{
		ActionType: action.ActionType(),
		Action:     action,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runDescribe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDescribe(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	client := watcher.NewClient(chainClient, nil, nil, logger)
	if err := client.Describe(ctx, cfg.ExpectedChainID); err != nil {
		return err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return err
	}
	finalized, err := client.CurrentFinalizedHeight(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "chain_id=%d finalized=%d\n", chainID, finalized)
	return err
}
