// Package probe classifies tokens by running probe swaps against their pools
// and persisting verdicts. A token is bought with a safe asset and sold back;
// any rejection, or any gap between the predicted and realized output, marks
// it as taxed or as a honeypot.
package probe

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"honeyScope/internal/ledger"
	"honeyScope/internal/model"
	"honeyScope/internal/sim"
)

// SafeToken is a widely-held asset the probe trusts as the counter-side of a
// test swap. ProbeUnits is the whole-unit amount to swap, sized so any pool
// with real liquidity can absorb it.
type SafeToken struct {
	Symbol     string
	Decimals   uint8
	ProbeUnits int64
}

// DefaultSafeTokens returns the mainnet safe-token set.
func DefaultSafeTokens() map[common.Address]SafeToken {
	return map[common.Address]SafeToken{
		common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"): {Symbol: "WETH", Decimals: 18, ProbeUnits: 20},
		common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"): {Symbol: "USDT", Decimals: 6, ProbeUnits: 10000},
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"): {Symbol: "USDC", Decimals: 6, ProbeUnits: 10000},
		common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"): {Symbol: "DAI", Decimals: 18, ProbeUnits: 10000},
	}
}

// Filter probes tokens and caches verdicts.
type Filter struct {
	ledger *ledger.Ledger
	caller common.Address
	safe   map[common.Address]SafeToken
	logger *zap.Logger

	mu       sync.RWMutex
	verdicts map[common.Address]model.Verdict
}

// NewFilter builds a Filter over a ledger. The caller address is the account
// the probe trades from; it only needs to exist as a balance holder.
func NewFilter(l *ledger.Ledger, caller common.Address, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{
		ledger:   l,
		caller:   caller,
		safe:     DefaultSafeTokens(),
		logger:   logger,
		verdicts: make(map[common.Address]model.Verdict),
	}
}

// IsSafe reports whether the address is in the safe-token set.
func (f *Filter) IsSafe(token common.Address) bool {
	_, ok := f.safe[token]
	return ok
}

// Verdict returns the cached verdict for a token, if present.
func (f *Filter) Verdict(token common.Address) (model.Verdict, bool) {
	f.mu.RLock()
	v, ok := f.verdicts[token]
	f.mu.RUnlock()
	return v, ok
}

// Warm seeds the verdict cache, e.g. from a persisted store.
func (f *Filter) Warm(verdicts []model.Verdict) {
	f.mu.Lock()
	for _, v := range verdicts {
		f.verdicts[common.HexToAddress(v.Token)] = v
	}
	f.mu.Unlock()
}

// CheckToken probes testToken on the given pair: buy with the safe token,
// then sell back whatever was actually received. The verdict is cached.
func (f *Filter) CheckToken(chainID uint64, pair *ledger.Pair, safeToken, testToken common.Address) model.Verdict {
	if v, ok := f.Verdict(testToken); ok {
		return v
	}

	verdict := model.Verdict{
		ChainID:   chainID,
		Token:     testToken.Hex(),
		Pair:      pair.Address.Hex(),
		SafeToken: safeToken.Hex(),
		Kind:      model.VerdictClean,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	}

	info, ok := f.safe[safeToken]
	if !ok {
		verdict.Kind = model.VerdictHoneypot
		verdict.Reason = fmt.Sprintf("no safe counter-token for pair %s", pair.Address.Hex())
		return f.store(testToken, verdict)
	}

	amountIn := new(big.Int).SetInt64(info.ProbeUnits)
	amountIn.Mul(amountIn, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(info.Decimals)), nil))

	// seed the probe account with the safe asset
	f.ledger.Mint(safeToken, f.caller, amountIn)
	simulator := sim.New(f.ledger, f.caller)

	buy, err := simulator.TransferAndSwap(amountIn, pair, safeToken, testToken)
	if err != nil {
		verdict.Kind = model.VerdictHoneypot
		verdict.Reason = probeFailure("buy", err)
		f.logger.Info("buy probe failed",
			zap.String("token", testToken.Hex()),
			zap.String("pair", pair.Address.Hex()),
			zap.Error(err),
		)
		return f.store(testToken, verdict)
	}
	if buy.ActualOut.Sign() <= 0 {
		verdict.Kind = model.VerdictHoneypot
		verdict.Reason = "buy delivered nothing"
		return f.store(testToken, verdict)
	}
	verdict.BuyTaxBps = taxBps(buy.PredictedOut, buy.ActualOut)

	sell, err := simulator.TransferAndSwap(buy.ActualOut, pair, testToken, safeToken)
	if err != nil {
		verdict.Kind = model.VerdictHoneypot
		verdict.Reason = probeFailure("sell", err)
		f.logger.Info("sell probe failed",
			zap.String("token", testToken.Hex()),
			zap.String("pair", pair.Address.Hex()),
			zap.Error(err),
		)
		return f.store(testToken, verdict)
	}

	// sell-side tax shows up on the way into the pool
	verdict.SellTaxBps = taxBps(sell.AmountIn, sell.ReceivedByPool)
	if taxBps(sell.PredictedOut, sell.ActualOut) > 0 {
		// the safe side paid out short; something other than the test token
		// is interfering, treat it as hostile
		verdict.Kind = model.VerdictHoneypot
		verdict.Reason = "safe-token payout fell short of prediction"
		return f.store(testToken, verdict)
	}

	if verdict.BuyTaxBps > 0 || verdict.SellTaxBps > 0 {
		verdict.Kind = model.VerdictFeeOnTransfer
	}

	f.logger.Debug("token probed",
		zap.String("token", testToken.Hex()),
		zap.String("kind", string(verdict.Kind)),
		zap.Int64("buy_tax_bps", verdict.BuyTaxBps),
		zap.Int64("sell_tax_bps", verdict.SellTaxBps),
	)
	return f.store(testToken, verdict)
}

func (f *Filter) store(token common.Address, v model.Verdict) model.Verdict {
	f.mu.Lock()
	f.verdicts[token] = v
	f.mu.Unlock()
	return v
}

// taxBps measures the shortfall of actual against expected in basis points.
func taxBps(expected, actual *big.Int) int64 {
	if expected == nil || expected.Sign() <= 0 || actual == nil {
		return 0
	}
	if actual.Cmp(expected) >= 0 {
		return 0
	}
	shortfall := new(big.Int).Sub(expected, actual)
	shortfall.Mul(shortfall, big.NewInt(10000))
	return shortfall.Div(shortfall, expected).Int64()
}

// probeFailure tags the failing leg and step for the verdict reason.
func probeFailure(leg string, err error) string {
	switch {
	case errors.Is(err, sim.ErrTransferRejected):
		return fmt.Sprintf("%s: transfer into pool rejected: %v", leg, err)
	case errors.Is(err, sim.ErrSwapRejected):
		return fmt.Sprintf("%s: pool swap rejected: %v", leg, err)
	default:
		return fmt.Sprintf("%s: %v", leg, err)
	}
}
