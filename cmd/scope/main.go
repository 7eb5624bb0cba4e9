package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"honeyScope/internal/chain"
	"honeyScope/internal/config"
	"honeyScope/internal/probe"
	"honeyScope/internal/storage"
	"honeyScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "scope",
		Short:        "V2 pair honeypot scanner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan factory pair creations and probe new tokens",
		RunE:  runScan,
	}

	scanCmd.Flags().String("rpc", "", "RPC URL")
	scanCmd.Flags().String("factory", "", "V2 factory address")
	scanCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	scanCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	scanCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	scanCmd.Flags().Int("max-pairs", 0, "stop after probing this many pairs, 0 means unlimited")
	scanCmd.Flags().String("out", "./data/verdicts.jsonl", "output JSONL path")
	scanCmd.Flags().String("pg-dsn", "", "Postgres DSN; when set, verdicts go to Postgres instead of JSONL")
	scanCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	scanCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	scanCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	scanCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Probe a single pair and print the verdict",
		RunE:  runCheck,
	}

	checkCmd.Flags().String("rpc", "", "RPC URL")
	checkCmd.Flags().String("pair", "", "pair address to probe")
	checkCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(checkCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a constant-product swap quote offline",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
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
	if cfg.Factory == "" {
		return fmt.Errorf("factory address is required")
	}
	if !common.IsHexAddress(cfg.Factory) {
		return fmt.Errorf("invalid factory address: %s", cfg.Factory)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var storageSink storage.Storage
	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		storageSink = pgStore
	} else {
		storageSink = storage.NewJsonlStorage(cfg.Out)
	}

	scanner := probe.NewScanner(probe.ScanConfig{
		Factory:           common.HexToAddress(cfg.Factory),
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		BatchSize:         cfg.BatchSize,
		MaxPairs:          cfg.MaxPairs,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, storageSink, logger)

	if pgStore != nil {
		chainID, err := chainClient.GetChainID(ctx)
		if err != nil {
			return fmt.Errorf("get chain id: %w", err)
		}
		verdicts, err := pgStore.LoadVerdicts(ctx, chainID.Uint64())
		if err != nil {
			return fmt.Errorf("load verdicts: %w", err)
		}
		scanner.Filter().Warm(verdicts)
		logger.Info("verdict cache warmed", zap.Int("verdicts", len(verdicts)))
	}

	logger.Info("scan start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("factory", cfg.Factory),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("max_pairs", cfg.MaxPairs),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return scanner.Run(ctx)
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
