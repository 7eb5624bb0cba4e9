package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"honeyScope/internal/chain"
	"honeyScope/internal/dex"
	"honeyScope/internal/ledger"
	"honeyScope/internal/model"
	"honeyScope/internal/probe"
)

func runCheck(cmd *cobra.Command, _ []string) error {
	rpcURL, _ := cmd.Flags().GetString("rpc")
	pairArg, _ := cmd.Flags().GetString("pair")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if rpcURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(pairArg) {
		return fmt.Errorf("invalid pair address: %s", pairArg)
	}
	pairAddress := common.HexToAddress(pairArg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	latest, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	token0, token1, err := dex.FetchPairTokens(ctx, chainClient, pairAddress)
	if err != nil {
		return fmt.Errorf("fetch pair tokens: %w", err)
	}

	l := ledger.New()
	filter := probe.NewFilter(l, probe.ProbeAccount, logger)

	var safeToken, testToken common.Address
	switch {
	case filter.IsSafe(token0) && !filter.IsSafe(token1):
		safeToken, testToken = token0, token1
	case filter.IsSafe(token1) && !filter.IsSafe(token0):
		safeToken, testToken = token1, token0
	default:
		return fmt.Errorf("pair %s has no probeable side: token0=%s token1=%s", pairArg, token0.Hex(), token1.Hex())
	}

	record := model.Pair{
		ChainID:        chainID.Uint64(),
		Address:        pairAddress.Hex(),
		Token0:         token0.Hex(),
		Token1:         token1.Hex(),
		FirstSeenBlock: latest,
	}
	pair, err := dex.HydratePair(ctx, chainClient, l, record, logger)
	if err != nil {
		return fmt.Errorf("hydrate pair: %w", err)
	}

	verdict := filter.CheckToken(chainID.Uint64(), pair, safeToken, testToken)
	verdict.BlockNumber = latest
	if meta, err := dex.FetchTokenMeta(ctx, chainClient, testToken, logger); err == nil {
		verdict.TokenSymbol = meta.Symbol
	}

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
