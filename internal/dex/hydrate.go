package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"honeyScope/internal/chain"
	"honeyScope/internal/ledger"
	"honeyScope/internal/model"
)

// HydratePair mirrors an on-chain pair into the ledger: it loads the recorded
// reserves, mints the pair's actual token balances, and registers the pair.
// Reserves and balances can drift apart on live pairs (donations, pending
// skim); both are hydrated so swaps see the same gap the chain would.
func HydratePair(ctx context.Context, chainClient *chain.Client, l *ledger.Ledger, record model.Pair, logger *zap.Logger) (*ledger.Pair, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	address := common.HexToAddress(record.Address)
	token0 := common.HexToAddress(record.Token0)
	token1 := common.HexToAddress(record.Token1)

	reserve0, reserve1, ts, err := FetchReserves(ctx, chainClient, address)
	if err != nil {
		return nil, fmt.Errorf("fetch reserves for %s: %w", record.Address, err)
	}

	balance0, err := FetchBalance(ctx, chainClient, token0, address)
	if err != nil {
		return nil, fmt.Errorf("fetch token0 balance for %s: %w", record.Address, err)
	}
	balance1, err := FetchBalance(ctx, chainClient, token1, address)
	if err != nil {
		return nil, fmt.Errorf("fetch token1 balance for %s: %w", record.Address, err)
	}

	if balance0.Cmp(reserve0) != 0 || balance1.Cmp(reserve1) != 0 {
		logger.Debug("pair balances drift from reserves",
			zap.String("pair", record.Address),
			zap.String("reserve0", reserve0.String()),
			zap.String("balance0", balance0.String()),
			zap.String("reserve1", reserve1.String()),
			zap.String("balance1", balance1.String()),
		)
	}

	pair := ledger.NewPair(address, token0, token1)
	pair.SetReserves(reserve0, reserve1, ts)
	l.Mint(token0, address, balance0)
	l.Mint(token1, address, balance1)
	l.RegisterPair(pair)

	return pair, nil
}
