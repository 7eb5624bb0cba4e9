package sim

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeyScope/internal/amm"
	"honeyScope/internal/ledger"
)

var (
	pairAddr  = common.HexToAddress("0xdd00000000000000000000000000000000000001")
	safeToken = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testToken = common.HexToAddress("0x2000000000000000000000000000000000000001")
	trader    = common.HexToAddress("0xa000000000000000000000000000000000000002")
)

// newProbePool funds a safeToken/testToken pair and seeds the trader.
func newProbePool(t *testing.T, reserveSafe, reserveTest, traderFunds int64) (*ledger.Ledger, *ledger.Pair, *Simulator) {
	t.Helper()
	l := ledger.New()
	pair := ledger.NewPair(pairAddr, safeToken, testToken)
	l.RegisterPair(pair)
	l.Mint(safeToken, pairAddr, big.NewInt(reserveSafe))
	l.Mint(testToken, pairAddr, big.NewInt(reserveTest))
	pair.Sync(l)
	l.Mint(safeToken, trader, big.NewInt(traderFunds))
	return l, pair, New(l, trader)
}

func TestTransferAndSwapCleanToken(t *testing.T) {
	l, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 1_000)

	out, err := sim.TransferAndSwap(big.NewInt(1_000), pair, safeToken, testToken)
	require.NoError(t, err)

	assert.Zero(t, big.NewInt(1_000).Cmp(out.ReceivedByPool))
	assert.Zero(t, big.NewInt(1992).Cmp(out.PredictedOut))
	assert.Zero(t, big.NewInt(1992).Cmp(out.ActualOut))
	assert.Zero(t, big.NewInt(1992).Cmp(l.BalanceOf(testToken, trader)))
}

func TestTransferAndSwapInputTaxedToken(t *testing.T) {
	// 5% input tax: the pool receives 950 of the 1000 sent. The quote must be
	// based on the measured 950; quoting on the nominal 1000 both requests an
	// unpayable output and misclassifies the token.
	l, pair, sim := newProbePool(t, 2_000_000, 1_000_000, 0)
	l.RegisterToken(testToken, ledger.FeeOnTransferToken{TaxBps: 500})
	l.Mint(testToken, trader, big.NewInt(1_053))

	// selling the taxed token into the pool: test -> safe
	out, err := sim.TransferAndSwap(big.NewInt(1_000), pair, testToken, safeToken)
	require.NoError(t, err)

	assert.Zero(t, big.NewInt(950).Cmp(out.ReceivedByPool))
	assert.Zero(t, big.NewInt(1892).Cmp(out.PredictedOut))
	// output side is untaxed, so the realized amount matches the prediction
	assert.Zero(t, big.NewInt(1892).Cmp(out.ActualOut))
}

func TestTransferAndSwapOutputBlocked(t *testing.T) {
	l, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 1_000)
	l.RegisterToken(testToken, ledger.BlocklistToken{Blocked: map[common.Address]bool{trader: true}})

	_, err := sim.TransferAndSwap(big.NewInt(1_000), pair, safeToken, testToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSwapRejected)

	// no effects survive: the trader keeps the input, the pool keeps its reserves
	assert.Zero(t, big.NewInt(1_000).Cmp(l.BalanceOf(safeToken, trader)))
	r0, r1, _ := pair.Reserves()
	reserveSafe, reserveTest := amm.ResolveReserves(r0, r1, safeToken, testToken)
	assert.Zero(t, big.NewInt(1_000_000).Cmp(reserveSafe))
	assert.Zero(t, big.NewInt(2_000_000).Cmp(reserveTest))
	assert.Zero(t, big.NewInt(1_000_000).Cmp(l.BalanceOf(safeToken, pairAddr)))
}

func TestTransferAndSwapInputBlocked(t *testing.T) {
	l, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 1_000)
	l.RegisterToken(safeToken, ledger.BlocklistToken{Blocked: map[common.Address]bool{trader: true}})

	_, err := sim.TransferAndSwap(big.NewInt(1_000), pair, safeToken, testToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransferRejected)

	assert.Zero(t, big.NewInt(1_000).Cmp(l.BalanceOf(safeToken, trader)))
	assert.Zero(t, big.NewInt(1_000_000).Cmp(l.BalanceOf(safeToken, pairAddr)))
}

func TestTransferAndSwapForgedTransfer(t *testing.T) {
	l, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 1_000)
	l.RegisterToken(safeToken, ledger.SilentFailToken{})

	// the transfer "succeeds" but the pool's balance never moves
	_, err := sim.TransferAndSwap(big.NewInt(1_000), pair, safeToken, testToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransferRejected)
}

func TestTransferAndSwapReverseDirection(t *testing.T) {
	l, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 0)
	l.Mint(testToken, trader, big.NewInt(1_000))

	out, err := sim.TransferAndSwap(big.NewInt(1_000), pair, testToken, safeToken)
	require.NoError(t, err)

	// reserves resolved for the test -> safe direction: in=2_000_000, out=1_000_000
	expected, qerr := amm.QuoteOutput(big.NewInt(1_000), big.NewInt(2_000_000), big.NewInt(1_000_000))
	require.NoError(t, qerr)
	assert.Zero(t, expected.Cmp(out.PredictedOut))
	assert.Zero(t, expected.Cmp(out.ActualOut))
}

func TestTransferAndSwapZeroAmount(t *testing.T) {
	_, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 1_000)
	_, err := sim.TransferAndSwap(big.NewInt(0), pair, safeToken, testToken)
	assert.ErrorIs(t, err, amm.ErrInvalidInput)
}

func TestTransferAndSwapTokenMismatch(t *testing.T) {
	_, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 1_000)
	other := common.HexToAddress("0x3000000000000000000000000000000000000001")
	_, err := sim.TransferAndSwap(big.NewInt(100), pair, safeToken, other)
	assert.ErrorIs(t, err, ErrTokenMismatch)
}

func TestTransferAndSwapOutputTax(t *testing.T) {
	l, pair, sim := newProbePool(t, 1_000_000, 2_000_000, 1_000)
	l.RegisterToken(testToken, ledger.DirectionalFeeToken{Pool: pairAddr, BuyTaxBps: 500, SellTaxBps: 0})

	out, err := sim.TransferAndSwap(big.NewInt(1_000), pair, safeToken, testToken)
	require.NoError(t, err)

	// pool pays out the full prediction; the tax shaves the delivery
	assert.Zero(t, big.NewInt(1992).Cmp(out.PredictedOut))
	expected := big.NewInt(1992 * 9500 / 10000)
	assert.Zero(t, expected.Cmp(out.ActualOut))
	assert.True(t, out.ActualOut.Cmp(out.PredictedOut) < 0)
}
