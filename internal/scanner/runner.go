package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"liquidationLedger/internal/model"
	"liquidationLedger/internal/retry"
	"liquidationLedger/internal/sink"
)

// LogSource queries the chain for matching logs.
type LogSource interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, address common.Address, topic0 common.Hash) ([]types.Log, error)
}

// WindowResolver maps a unix timestamp to the nearest block at or before it.
type WindowResolver interface {
	BlockAtOrBefore(ctx context.Context, timestamp uint64) (uint64, error)
}

// RecordDecoder derives an accounting record from a raw log, or reports
// that the log is to be skipped.
type RecordDecoder interface {
	Decode(ctx context.Context, log types.Log) (*model.AccountingRecord, bool, error)
}

// RunConfig holds runtime settings for a scan.
type RunConfig struct {
	StartTime         uint64
	EndTime           uint64
	WindowSize        uint64
	Router            common.Address
	Topic0            common.Hash
	MaxRetries        int
	RetryBackoff      time.Duration
	CheckpointPath    string
	CheckpointEnabled bool
	Progress          bool
}

// Runner drives the pipeline: resolve the block window, iterate chunks in
// ascending order, fetch logs, decode, emit.
type Runner struct {
	cfg        RunConfig
	source     LogSource
	resolver   WindowResolver
	decoder    RecordDecoder
	sink       sink.Sink
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its collaborators.
func NewRunner(cfg RunConfig, source LogSource, resolver WindowResolver, decoder RecordDecoder, out sink.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		resolver:   resolver,
		decoder:    decoder,
		sink:       out,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the scan.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if r.resolver == nil {
		return fmt.Errorf("window resolver is nil")
	}
	if r.decoder == nil {
		return fmt.Errorf("decoder is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.WindowSize == 0 {
		return fmt.Errorf("window size must be greater than zero")
	}
	if r.cfg.EndTime < r.cfg.StartTime {
		return fmt.Errorf("end timestamp must be >= start timestamp")
	}

	windowFrom, err := r.resolveBlock(ctx, r.cfg.StartTime)
	if err != nil {
		return fmt.Errorf("resolve start block: %w", err)
	}
	windowTo, err := r.resolveBlock(ctx, r.cfg.EndTime)
	if err != nil {
		return fmt.Errorf("resolve end block: %w", err)
	}
	if windowTo < windowFrom {
		return fmt.Errorf("resolved window is empty: blocks %d..%d", windowFrom, windowTo)
	}

	from := windowFrom
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load(windowFrom, windowTo)
		if err != nil {
			return err
		}
		if ok && cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			r.logger.Info("resume from checkpoint",
				zap.Uint64("last_processed", cp.LastProcessedBlock),
				zap.Uint64("from", from),
			)
		}
	}

	if from > windowTo {
		r.logger.Info("nothing to scan", zap.Uint64("from", from), zap.Uint64("to", windowTo))
		return nil
	}

	ranges, err := SplitRange(from, windowTo, r.cfg.WindowSize)
	if err != nil {
		return err
	}

	r.logger.Info("scan start",
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", windowTo),
		zap.Uint64("window_size", r.cfg.WindowSize),
		zap.Int("chunks", len(ranges)),
	)

	var bar *progressbar.ProgressBar
	if r.cfg.Progress {
		bar = progressbar.Default(int64(len(ranges)), "scanning")
	}

	var emitted, skipped int
	for _, chunk := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		logs, err := r.filterLogsWithRetry(ctx, chunk.From, chunk.To)
		if err != nil {
			return fmt.Errorf("filter logs %d..%d: %w", chunk.From, chunk.To, err)
		}

		for _, log := range logs {
			if r.isDuplicate(log) {
				continue
			}

			record, ok, err := r.decoder.Decode(ctx, log)
			if err != nil {
				return fmt.Errorf("decode log %s: %w", log.TxHash.Hex(), err)
			}
			if !ok {
				skipped++
				continue
			}

			if err := r.emitWithRetry(ctx, *record); err != nil {
				return fmt.Errorf("emit record %s: %w", record.TxHash, err)
			}
			emitted++
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(windowFrom, windowTo, chunk.To); err != nil {
				return err
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		r.logger.Debug("chunk complete",
			zap.Uint64("from", chunk.From),
			zap.Uint64("to", chunk.To),
			zap.Int("logs", len(logs)),
		)
	}

	if bar != nil {
		_ = bar.Finish()
	}
	r.logger.Info("scan complete", zap.Int("records", emitted), zap.Int("skipped", skipped))
	return nil
}

func (r *Runner) resolveBlock(ctx context.Context, timestamp uint64) (uint64, error) {
	var block uint64
	err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		block, err = r.resolver.BlockAtOrBefore(ctx, timestamp)
		if err != nil {
			r.logger.Warn("block resolution failed", zap.Error(err), zap.Uint64("timestamp", timestamp))
		}
		return err
	})
	return block, err
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.source.FilterLogs(ctx, fromBlock, toBlock, r.cfg.Router, r.cfg.Topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) emitWithRetry(ctx context.Context, record model.AccountingRecord) error {
	return retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		err := r.sink.Emit(ctx, record)
		if err != nil {
			r.logger.Warn("sink emit failed", zap.Error(err), zap.String("tx_hash", record.TxHash))
		}
		return err
	})
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
