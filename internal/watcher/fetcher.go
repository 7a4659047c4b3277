package watcher

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bridgeWatch/internal/model"
)

// LogFetcher queries logs for an address over a block range and hydrates each
// one through the ReceiptMatcher.
type LogFetcher struct {
	provider Provider
	matcher  *ReceiptMatcher
	logger   *zap.Logger
}

func NewLogFetcher(provider Provider, matcher *ReceiptMatcher, logger *zap.Logger) *LogFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = NewReceiptMatcher(provider)
	}
	return &LogFetcher{provider: provider, matcher: matcher, logger: logger}
}

// FetchRange returns the verified logs emitted by address in [startBlock, endBlock].
// The range is queried in one call; callers own windowing. Resolutions run
// concurrently and the result order is unspecified. If any log fails to
// resolve the whole call fails; in-flight siblings are left to finish.
func (f *LogFetcher) FetchRange(ctx context.Context, address common.Address, startBlock, endBlock uint64) ([]model.VerifiedLog, error) {
	logs, err := f.provider.FilterLogs(ctx, address, startBlock, endBlock)
	if err != nil {
		f.logger.Error("filter logs failed",
			zap.String("address", address.Hex()),
			zap.Uint64("from", startBlock),
			zap.Uint64("to", endBlock),
			zap.Error(err),
		)
		return nil, transientError("filter logs", err)
	}
	if len(logs) == 0 {
		return []model.VerifiedLog{}, nil
	}

	results := make([]model.VerifiedLog, len(logs))
	var g errgroup.Group
	for i, log := range logs {
		i, log := i, log
		g.Go(func() error {
			verified, err := f.matcher.Resolve(ctx, log)
			if err != nil {
				return err
			}
			results[i] = verified
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.logger.Error("resolve log tx details failed",
			zap.String("address", address.Hex()),
			zap.Uint64("from", startBlock),
			zap.Uint64("to", endBlock),
			zap.Stringer("kind", KindOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	return results, nil
}
