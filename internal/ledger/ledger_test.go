package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToken = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice     = common.HexToAddress("0xa000000000000000000000000000000000000001")
	bob       = common.HexToAddress("0xb000000000000000000000000000000000000001")
)

func TestStandardTransfer(t *testing.T) {
	l := New()
	l.Mint(testToken, alice, big.NewInt(1_000))

	require.NoError(t, l.Transfer(testToken, alice, bob, big.NewInt(400)))

	assert.Zero(t, big.NewInt(600).Cmp(l.BalanceOf(testToken, alice)))
	assert.Zero(t, big.NewInt(400).Cmp(l.BalanceOf(testToken, bob)))
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := New()
	l.Mint(testToken, alice, big.NewInt(100))

	err := l.Transfer(testToken, alice, bob, big.NewInt(200))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Zero(t, big.NewInt(100).Cmp(l.BalanceOf(testToken, alice)))
}

func TestFeeOnTransfer(t *testing.T) {
	l := New()
	l.RegisterToken(testToken, FeeOnTransferToken{TaxBps: 500}) // 5%
	l.Mint(testToken, alice, big.NewInt(1_000))

	require.NoError(t, l.Transfer(testToken, alice, bob, big.NewInt(1_000)))

	// sender debited the full amount, recipient credited 95% of it
	assert.Zero(t, big.NewInt(0).Cmp(l.BalanceOf(testToken, alice)))
	assert.Zero(t, big.NewInt(950).Cmp(l.BalanceOf(testToken, bob)))
}

func TestDirectionalFee(t *testing.T) {
	pool := common.HexToAddress("0xc000000000000000000000000000000000000001")

	l := New()
	l.RegisterToken(testToken, DirectionalFeeToken{Pool: pool, BuyTaxBps: 100, SellTaxBps: 1_000})
	l.Mint(testToken, pool, big.NewInt(10_000))
	l.Mint(testToken, alice, big.NewInt(10_000))

	// buy: pool -> holder taxed at 1%
	require.NoError(t, l.Transfer(testToken, pool, bob, big.NewInt(1_000)))
	assert.Zero(t, big.NewInt(990).Cmp(l.BalanceOf(testToken, bob)))

	// sell: holder -> pool taxed at 10%
	require.NoError(t, l.Transfer(testToken, alice, pool, big.NewInt(1_000)))
	assert.Zero(t, big.NewInt(9_900).Cmp(l.BalanceOf(testToken, pool)))
}

func TestSellBlockingToken(t *testing.T) {
	pool := common.HexToAddress("0xc000000000000000000000000000000000000001")

	l := New()
	l.RegisterToken(testToken, SellBlockingToken{Pool: pool})
	l.Mint(testToken, pool, big.NewInt(1_000))

	// buys go through
	require.NoError(t, l.Transfer(testToken, pool, alice, big.NewInt(500)))

	// sells are rejected
	err := l.Transfer(testToken, alice, pool, big.NewInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransferBlocked)
}

func TestSilentFailToken(t *testing.T) {
	l := New()
	l.RegisterToken(testToken, SilentFailToken{})
	l.Mint(testToken, alice, big.NewInt(1_000))

	// reports success, moves nothing
	require.NoError(t, l.Transfer(testToken, alice, bob, big.NewInt(400)))
	assert.Zero(t, big.NewInt(1_000).Cmp(l.BalanceOf(testToken, alice)))
	assert.Zero(t, l.BalanceOf(testToken, bob).Sign())
}

func TestTransactRollsBackOnError(t *testing.T) {
	l := New()
	l.Mint(testToken, alice, big.NewInt(1_000))

	pair := NewPair(common.HexToAddress("0xdd00000000000000000000000000000000000001"), testToken, bob)
	pair.SetReserves(big.NewInt(10), big.NewInt(20), 7)
	l.RegisterPair(pair)

	boom := errors.New("boom")
	err := l.Transact(func(tx *Ledger) error {
		if err := tx.Transfer(testToken, alice, bob, big.NewInt(900)); err != nil {
			return err
		}
		pair.SetReserves(big.NewInt(99), big.NewInt(99), 8)
		return boom
	})
	require.ErrorIs(t, err, boom)

	// balances and pair state restored
	assert.Zero(t, big.NewInt(1_000).Cmp(l.BalanceOf(testToken, alice)))
	assert.Zero(t, l.BalanceOf(testToken, bob).Sign())
	r0, r1, ts := pair.Reserves()
	assert.Zero(t, big.NewInt(10).Cmp(r0))
	assert.Zero(t, big.NewInt(20).Cmp(r1))
	assert.Equal(t, uint32(7), ts)
}

func TestTransactCommits(t *testing.T) {
	l := New()
	l.Mint(testToken, alice, big.NewInt(1_000))

	err := l.Transact(func(tx *Ledger) error {
		return tx.Transfer(testToken, alice, bob, big.NewInt(250))
	})
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(750).Cmp(l.BalanceOf(testToken, alice)))
	assert.Zero(t, big.NewInt(250).Cmp(l.BalanceOf(testToken, bob)))
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	l := New()
	l.Mint(testToken, alice, big.NewInt(1_000))

	balance := l.BalanceOf(testToken, alice)
	balance.Add(balance, big.NewInt(5_000))

	assert.Zero(t, big.NewInt(1_000).Cmp(l.BalanceOf(testToken, alice)))
}
