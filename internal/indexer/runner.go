package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"bridgeWatch/internal/metrics"
	"bridgeWatch/internal/model"
	"bridgeWatch/internal/storage"
	"bridgeWatch/internal/watcher"
)

// RunConfig holds runtime settings for the watcher loop.
type RunConfig struct {
	Address   common.Address
	FromBlock uint64
	// ToBlock 0 means "up to the finalized height".
	ToBlock         uint64
	BatchSize       uint64
	MaxRetries      int
	RetryBackoff    time.Duration
	Follow          bool
	PollInterval    time.Duration
	ExpectedChainID uint64
}

// Runner scans finalized blocks for bridge actions and writes them to storage.
type Runner struct {
	cfg        RunConfig
	client     *watcher.Client
	storage    storage.Storage
	checkpoint CheckpointStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewRunner builds a Runner with its dependencies. checkpoint and m may be nil.
func NewRunner(cfg RunConfig, client *watcher.Client, sink storage.Storage, checkpoint CheckpointStore, m *metrics.Metrics, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		client:     client,
		storage:    sink,
		checkpoint: checkpoint,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes the watcher loop. Without Follow it returns once the finalized
// part of the configured range has been processed.
func (r *Runner) Run(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("watcher client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.Address == (common.Address{}) {
		return fmt.Errorf("bridge contract address is required")
	}
	if r.cfg.ToBlock != 0 && r.cfg.ToBlock < r.cfg.FromBlock {
		return fmt.Errorf("to block must be >= from block")
	}

	if err := r.client.Describe(ctx, r.cfg.ExpectedChainID); err != nil {
		return err
	}
	chainID, err := r.client.ChainID(ctx)
	if err != nil {
		return err
	}

	next := r.cfg.FromBlock
	if r.checkpoint != nil {
		last, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if ok && last >= next {
			next = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", next))
		}
	}

	for {
		next, err = r.syncOnce(ctx, chainID, next)
		if err != nil {
			r.recordError(err)
			return err
		}
		if !r.cfg.Follow || r.reachedEnd(next) {
			return nil
		}

		timer := time.NewTimer(r.pollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// syncOnce processes [next, min(ToBlock, finalized)] and returns the next
// unprocessed block.
func (r *Runner) syncOnce(ctx context.Context, chainID, next uint64) (uint64, error) {
	var finalized uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		finalized, err = r.client.CurrentFinalizedHeight(ctx)
		if err != nil {
			r.logger.Warn("finalized height unavailable", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return next, err
	}
	r.metrics.FinalizedHeight(finalized)

	to := finalized
	if r.cfg.ToBlock != 0 && r.cfg.ToBlock < to {
		to = r.cfg.ToBlock
	}
	if next > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", next), zap.Uint64("to", to), zap.Uint64("finalized", finalized))
		return next, nil
	}

	ranges, err := SplitRange(next, to, r.cfg.BatchSize)
	if err != nil {
		return next, err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return next, ctx.Err()
		default:
		}

		if err := r.processRange(ctx, chainID, blockRange); err != nil {
			return next, err
		}
		next = blockRange.To + 1
	}
	return next, nil
}

func (r *Runner) processRange(ctx context.Context, chainID uint64, blockRange BlockRange) error {
	r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	logs, err := r.fetchRangeWithRetry(ctx, blockRange.From, blockRange.To)
	if err != nil {
		return fmt.Errorf("fetch range %d-%d: %w", blockRange.From, blockRange.To, err)
	}
	r.metrics.LogsVerified(len(logs))
	model.SortVerifiedLogs(logs)

	ingestedAt := r.now()
	records := make([]model.ActionRecord, 0, len(logs))
	// Earlier ranges are behind the checkpoint, so duplicates only matter within this one.
	seen := make(map[string]struct{}, len(logs))
	for _, log := range logs {
		event, ok := r.client.Decode(log)
		if !ok {
			r.metrics.EventSkipped("not_bridge_event")
			continue
		}
		action, ok := r.client.Extract(event, log.TxHash, log.LogIndexInTx)
		if !ok {
			r.metrics.EventSkipped("not_actionable")
			r.logger.Debug("event not actionable",
				zap.String("event", event.EventName()),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Uint16("event_index", log.LogIndexInTx),
			)
			continue
		}
		if isDuplicate(seen, log) {
			r.metrics.EventSkipped("duplicate")
			continue
		}

		record, err := buildActionRecord(chainID, log, event, action, ingestedAt)
		if err != nil {
			return err
		}
		records = append(records, record)
		r.metrics.ActionExtracted()
	}

	if err := r.storage.PutActionBatch(ctx, records); err != nil {
		return fmt.Errorf("store actions: %w", err)
	}

	if r.checkpoint != nil {
		if err := r.checkpoint.Save(ctx, blockRange.To); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}
	r.metrics.ProcessedHeight(blockRange.To)

	r.logger.Info("batch complete",
		zap.Int("logs", len(logs)),
		zap.Int("actions", len(records)),
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To),
	)
	return nil
}

func (r *Runner) fetchRangeWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]model.VerifiedLog, error) {
	var logs []model.VerifiedLog
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.client.FetchRange(ctx, r.cfg.Address, fromBlock, toBlock)
		if err != nil && watcher.IsRetryable(err) {
			r.logger.Warn("fetch range failed, retrying", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) recordError(err error) {
	kind := watcher.KindOf(err)
	r.metrics.Error(kind.String())
	if kind == watcher.KindProviderIntegrity {
		r.logger.Error("provider returned inconsistent data, halting", zap.Error(err))
	}
}

func (r *Runner) reachedEnd(next uint64) bool {
	return r.cfg.ToBlock != 0 && next > r.cfg.ToBlock
}

func (r *Runner) pollInterval() time.Duration {
	if r.cfg.PollInterval <= 0 {
		return 12 * time.Second
	}
	return r.cfg.PollInterval
}

func isDuplicate(seen map[string]struct{}, log model.VerifiedLog) bool {
	id := fmt.Sprintf("%s:%d", log.TxHash.Hex(), log.LogIndexInTx)
	if _, ok := seen[id]; ok {
		return true
	}
	seen[id] = struct{}{}
	return false
}
