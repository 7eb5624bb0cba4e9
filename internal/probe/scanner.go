package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"honeyScope/internal/chain"
	"honeyScope/internal/dex"
	"honeyScope/internal/ledger"
	"honeyScope/internal/model"
	"honeyScope/internal/storage"
)

// ProbeAccount is the synthetic trader probes run from. It exists only as a
// ledger balance holder.
var ProbeAccount = common.HexToAddress("0x0000000000000000000000000000000000001337")

// ScanConfig holds runtime settings for the pair scanner.
type ScanConfig struct {
	Factory           common.Address
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	MaxPairs          int
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Scanner discovers pairs from a factory, probes the unknown side of each,
// and writes pairs and verdicts to storage.
type Scanner struct {
	cfg        ScanConfig
	chain      *chain.Client
	storage    storage.Storage
	filter     *Filter
	ledger     *ledger.Ledger
	metaCache  *dex.TokenMetaCache
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
	probed     int
}

// NewScanner builds a Scanner with its dependencies.
func NewScanner(cfg ScanConfig, chainClient *chain.Client, storageSink storage.Storage, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := ledger.New()
	return &Scanner{
		cfg:        cfg,
		chain:      chainClient,
		storage:    storageSink,
		filter:     NewFilter(l, ProbeAccount, logger),
		ledger:     l,
		metaCache:  dex.NewTokenMetaCache(),
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Filter exposes the scanner's verdict filter, e.g. for cache warming.
func (s *Scanner) Filter() *Filter {
	return s.filter
}

// Run executes the scan loop.
func (s *Scanner) Run(ctx context.Context) error {
	if s.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if s.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if s.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if s.cfg.Factory == dex.ZeroAddress {
		return fmt.Errorf("factory address is required")
	}

	chainID, err := s.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := s.cfg.FromBlock
	to := s.cfg.ToBlock
	if to == 0 {
		latest, err := s.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if s.checkpoint != nil {
		cp, ok, err := s.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastScannedBlock >= from {
			from = cp.LastScannedBlock + 1
			s.logger.Info("resume from checkpoint", zap.Uint64("last_scanned", cp.LastScannedBlock), zap.Uint64("from", from))
		}
	}

	if from > to {
		s.logger.Info("nothing to scan", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.logger.Info("fetch pair creations", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := s.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		pairs := make([]model.Pair, 0, len(logs))
		for _, log := range logs {
			if s.isDuplicate(log) {
				continue
			}
			record, err := dex.ParsePairCreated(chainIDValue, log)
			if err != nil {
				s.logger.Warn("skip malformed PairCreated log",
					zap.Uint64("block", log.BlockNumber),
					zap.String("tx", log.TxHash.Hex()),
					zap.Error(err),
				)
				continue
			}
			pairs = append(pairs, record)
		}

		if err := s.storage.PutPairBatch(ctx, pairs); err != nil {
			return fmt.Errorf("store pairs: %w", err)
		}

		verdicts, batchComplete := s.probeBatch(ctx, chainIDValue, pairs)

		if err := s.storage.PutVerdictBatch(ctx, verdicts); err != nil {
			return fmt.Errorf("store verdicts: %w", err)
		}

		// A batch cut short by the pair budget is not checkpointed; a resumed
		// scan must revisit it, or the unprobed pairs would be skipped forever.
		if s.checkpoint != nil && batchComplete {
			if err := s.checkpoint.Save(blockRange.To); err != nil {
				return err
			}
		}

		s.logger.Info("batch complete",
			zap.Int("pairs", len(pairs)),
			zap.Int("verdicts", len(verdicts)),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)

		if s.cfg.MaxPairs > 0 && s.probed >= s.cfg.MaxPairs {
			s.logger.Info("pair budget reached", zap.Int("probed", s.probed))
			return nil
		}
	}

	return nil
}

// probeBatch probes discovered pairs until the pair budget runs out. The
// second return reports whether every pair in the batch was considered.
func (s *Scanner) probeBatch(ctx context.Context, chainID uint64, pairs []model.Pair) ([]model.Verdict, bool) {
	verdicts := make([]model.Verdict, 0, len(pairs))
	for _, record := range pairs {
		if s.cfg.MaxPairs > 0 && s.probed >= s.cfg.MaxPairs {
			return verdicts, false
		}
		verdict, ok, err := s.probePair(ctx, chainID, record)
		if err != nil {
			s.logger.Warn("pair probe failed",
				zap.String("pair", record.Address),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		s.probed++
		verdicts = append(verdicts, verdict)
	}
	return verdicts, true
}

// probePair hydrates a discovered pair and probes its non-safe token. Pairs
// where both or neither side is a safe token are skipped: there is either
// nothing to test or no trusted counter-asset to test with.
func (s *Scanner) probePair(ctx context.Context, chainID uint64, record model.Pair) (model.Verdict, bool, error) {
	token0 := common.HexToAddress(record.Token0)
	token1 := common.HexToAddress(record.Token1)

	var safeToken, testToken common.Address
	switch {
	case s.filter.IsSafe(token0) && !s.filter.IsSafe(token1):
		safeToken, testToken = token0, token1
	case s.filter.IsSafe(token1) && !s.filter.IsSafe(token0):
		safeToken, testToken = token1, token0
	default:
		return model.Verdict{}, false, nil
	}

	if v, ok := s.filter.Verdict(testToken); ok {
		return v, true, nil
	}

	pair, err := dex.HydratePair(ctx, s.chain, s.ledger, record, s.logger)
	if err != nil {
		return model.Verdict{}, false, err
	}

	verdict := s.filter.CheckToken(chainID, pair, safeToken, testToken)
	verdict.BlockNumber = record.FirstSeenBlock
	if meta, err := s.tokenMeta(ctx, testToken); err == nil {
		verdict.TokenSymbol = meta.Symbol
	}
	return verdict, true, nil
}

func (s *Scanner) tokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := s.metaCache.Get(token); ok {
		return meta, nil
	}
	meta, err := dex.FetchTokenMeta(ctx, s.chain, token, s.logger)
	if err != nil {
		return model.TokenMeta{}, err
	}
	s.metaCache.Set(token, meta)
	return meta, nil
}

func (s *Scanner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = s.chain.FilterLogs(ctx, fromBlock, toBlock, []common.Address{s.cfg.Factory}, []common.Hash{dex.PairCreatedTopic})
		if err != nil {
			s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (s *Scanner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}
