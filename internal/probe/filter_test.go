package probe

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeyScope/internal/ledger"
	"honeyScope/internal/model"
)

var (
	wethAddress = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	pairAddress = common.HexToAddress("0x00000000000000000000000000000000000000CC")
)

// newProbePool builds a WETH/testToken pool deep enough to absorb the probe.
func newProbePool(t *testing.T, l *ledger.Ledger) *ledger.Pair {
	t.Helper()

	depth, ok := new(big.Int).SetString("1000000000000000000000000", 10) // 1e24
	require.True(t, ok)

	pair := ledger.NewPair(pairAddress, wethAddress, testToken)
	l.Mint(wethAddress, pairAddress, depth)
	l.Mint(testToken, pairAddress, depth)
	pair.Sync(l)
	l.RegisterPair(pair)
	return pair
}

func TestCheckTokenClean(t *testing.T) {
	l := ledger.New()
	pair := newProbePool(t, l)
	filter := NewFilter(l, ProbeAccount, nil)

	verdict := filter.CheckToken(1, pair, wethAddress, testToken)

	assert.Equal(t, model.VerdictClean, verdict.Kind)
	assert.Zero(t, verdict.BuyTaxBps)
	assert.Zero(t, verdict.SellTaxBps)
	assert.Equal(t, testToken.Hex(), verdict.Token)
	assert.Equal(t, wethAddress.Hex(), verdict.SafeToken)
}

func TestCheckTokenFeeOnTransfer(t *testing.T) {
	l := ledger.New()
	pair := newProbePool(t, l)
	l.RegisterToken(testToken, ledger.FeeOnTransferToken{TaxBps: 500})
	filter := NewFilter(l, ProbeAccount, nil)

	verdict := filter.CheckToken(1, pair, wethAddress, testToken)

	assert.Equal(t, model.VerdictFeeOnTransfer, verdict.Kind)
	// both legs cross the taxed token, so both sides show close to 5%
	assert.InDelta(t, 500, verdict.BuyTaxBps, 5)
	assert.InDelta(t, 500, verdict.SellTaxBps, 5)
}

func TestCheckTokenSellBlocking(t *testing.T) {
	l := ledger.New()
	pair := newProbePool(t, l)
	l.RegisterToken(testToken, ledger.SellBlockingToken{Pool: pairAddress})
	filter := NewFilter(l, ProbeAccount, nil)

	verdict := filter.CheckToken(1, pair, wethAddress, testToken)

	assert.Equal(t, model.VerdictHoneypot, verdict.Kind)
	assert.Contains(t, verdict.Reason, "sell")
}

func TestCheckTokenBuyBlocked(t *testing.T) {
	l := ledger.New()
	pair := newProbePool(t, l)
	l.RegisterToken(testToken, ledger.BlocklistToken{
		Blocked: map[common.Address]bool{ProbeAccount: true},
	})
	filter := NewFilter(l, ProbeAccount, nil)

	verdict := filter.CheckToken(1, pair, wethAddress, testToken)

	assert.Equal(t, model.VerdictHoneypot, verdict.Kind)
	assert.Contains(t, verdict.Reason, "buy")
}

func TestCheckTokenSilentFail(t *testing.T) {
	l := ledger.New()
	pair := newProbePool(t, l)
	l.RegisterToken(testToken, ledger.SilentFailToken{})
	filter := NewFilter(l, ProbeAccount, nil)

	verdict := filter.CheckToken(1, pair, wethAddress, testToken)

	assert.Equal(t, model.VerdictHoneypot, verdict.Kind)
}

func TestCheckTokenUnknownSafeToken(t *testing.T) {
	l := ledger.New()
	pair := newProbePool(t, l)
	filter := NewFilter(l, ProbeAccount, nil)

	other := common.HexToAddress("0x00000000000000000000000000000000000000BB")
	verdict := filter.CheckToken(1, pair, other, testToken)

	assert.Equal(t, model.VerdictHoneypot, verdict.Kind)
	assert.Contains(t, verdict.Reason, "no safe counter-token")
}

func TestCheckTokenCachesVerdict(t *testing.T) {
	l := ledger.New()
	pair := newProbePool(t, l)
	filter := NewFilter(l, ProbeAccount, nil)

	first := filter.CheckToken(1, pair, wethAddress, testToken)
	second := filter.CheckToken(1, pair, wethAddress, testToken)

	assert.Equal(t, first, second)

	cached, ok := filter.Verdict(testToken)
	require.True(t, ok)
	assert.Equal(t, first, cached)
}

func TestWarmSeedsCache(t *testing.T) {
	l := ledger.New()
	filter := NewFilter(l, ProbeAccount, nil)

	seeded := model.Verdict{
		ChainID: 1,
		Token:   testToken.Hex(),
		Kind:    model.VerdictHoneypot,
		Reason:  "seeded",
	}
	filter.Warm([]model.Verdict{seeded})

	got, ok := filter.Verdict(testToken)
	require.True(t, ok)
	assert.Equal(t, seeded, got)
}

func TestIsSafe(t *testing.T) {
	filter := NewFilter(ledger.New(), ProbeAccount, nil)

	assert.True(t, filter.IsSafe(wethAddress))
	assert.False(t, filter.IsSafe(testToken))
}
