package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"honeyScope/internal/amm"
)

var (
	// ErrInsufficientOutputAmount is returned when a swap requests no output.
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	// ErrInsufficientInputAmount is returned when a swap received no input.
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
	// ErrInsufficientLiquidity is returned when a swap requests more than a reserve holds.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrInvalidRecipient is returned when the swap recipient is one of the pair's tokens.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrKViolation is returned when the fee-adjusted constant product would shrink.
	ErrKViolation = errors.New("constant product invariant violated")
)

var (
	thousand = big.NewInt(1000)
	three    = big.NewInt(3)
	million  = big.NewInt(1_000_000)
)

// Pair models a V2 pair executing against the ledger. The pair enforces its
// own invariant on every swap: it derives the amounts it actually received
// from its token balances, never from what the caller claims to have sent.
type Pair struct {
	Address common.Address
	Token0  common.Address
	Token1  common.Address

	reserve0           *big.Int
	reserve1           *big.Int
	blockTimestampLast uint32
}

// NewPair creates a pair with the tokens in canonical slot order.
func NewPair(address, tokenA, tokenB common.Address) *Pair {
	token0, token1 := amm.SortTokens(tokenA, tokenB)
	return &Pair{
		Address:  address,
		Token0:   token0,
		Token1:   token1,
		reserve0: new(big.Int),
		reserve1: new(big.Int),
	}
}

// Reserves returns copies of the slot-ordered reserves and the timestamp of
// the last reserve update.
func (p *Pair) Reserves() (reserve0, reserve1 *big.Int, blockTimestampLast uint32) {
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), p.blockTimestampLast
}

// SetReserves overwrites the recorded reserves; used for state hydration.
func (p *Pair) SetReserves(reserve0, reserve1 *big.Int, blockTimestampLast uint32) {
	p.reserve0 = new(big.Int).Set(reserve0)
	p.reserve1 = new(big.Int).Set(reserve1)
	p.blockTimestampLast = blockTimestampLast
}

// Swap pays out the requested amounts to the recipient, derives the amounts
// received from balance deltas against the recorded reserves, and enforces
// the fee-adjusted constant product:
//
//	(balance0*1000 - amount0In*3) * (balance1*1000 - amount1In*3) >= reserve0*reserve1*1000^2
//
// On any failure the caller's Transact discards all effects, including the
// optimistic output transfers.
func (p *Pair) Swap(l *Ledger, amount0Out, amount1Out *big.Int, to common.Address) error {
	if amount0Out == nil {
		amount0Out = new(big.Int)
	}
	if amount1Out == nil {
		amount1Out = new(big.Int)
	}
	if amount0Out.Sign() <= 0 && amount1Out.Sign() <= 0 {
		return ErrInsufficientOutputAmount
	}
	if amount0Out.Cmp(p.reserve0) >= 0 || amount1Out.Cmp(p.reserve1) >= 0 {
		return fmt.Errorf("%w: requested output exceeds reserves", ErrInsufficientLiquidity)
	}
	if to == p.Token0 || to == p.Token1 {
		return ErrInvalidRecipient
	}

	// Optimistic transfers: pay first, check the invariant after.
	if amount0Out.Sign() > 0 {
		if err := l.Transfer(p.Token0, p.Address, to, amount0Out); err != nil {
			return fmt.Errorf("token0 transfer out: %w", err)
		}
	}
	if amount1Out.Sign() > 0 {
		if err := l.Transfer(p.Token1, p.Address, to, amount1Out); err != nil {
			return fmt.Errorf("token1 transfer out: %w", err)
		}
	}

	balance0 := l.BalanceOf(p.Token0, p.Address)
	balance1 := l.BalanceOf(p.Token1, p.Address)

	amount0In := amountIn(balance0, p.reserve0, amount0Out)
	amount1In := amountIn(balance1, p.reserve1, amount1Out)
	if amount0In.Sign() <= 0 && amount1In.Sign() <= 0 {
		return ErrInsufficientInputAmount
	}

	adjusted0 := new(big.Int).Mul(balance0, thousand)
	adjusted0.Sub(adjusted0, new(big.Int).Mul(amount0In, three))
	adjusted1 := new(big.Int).Mul(balance1, thousand)
	adjusted1.Sub(adjusted1, new(big.Int).Mul(amount1In, three))

	left := new(big.Int).Mul(adjusted0, adjusted1)
	right := new(big.Int).Mul(p.reserve0, p.reserve1)
	right.Mul(right, million)
	if left.Cmp(right) < 0 {
		return ErrKViolation
	}

	p.reserve0 = balance0
	p.reserve1 = balance1
	p.blockTimestampLast = l.timestamp
	return nil
}

// Sync resets reserves to the pair's current token balances.
func (p *Pair) Sync(l *Ledger) {
	p.reserve0 = l.BalanceOf(p.Token0, p.Address)
	p.reserve1 = l.BalanceOf(p.Token1, p.Address)
	p.blockTimestampLast = l.timestamp
}

// amountIn is balance - (reserve - amountOut) when positive, else zero: the
// amount the pair actually received on that side during this swap.
func amountIn(balance, reserve, amountOut *big.Int) *big.Int {
	expected := new(big.Int).Sub(reserve, amountOut)
	in := new(big.Int).Sub(balance, expected)
	if in.Sign() < 0 {
		return new(big.Int)
	}
	return in
}

type pairSnapshot struct {
	reserve0           *big.Int
	reserve1           *big.Int
	blockTimestampLast uint32
}

func (p *Pair) snapshot() pairSnapshot {
	return pairSnapshot{
		reserve0:           new(big.Int).Set(p.reserve0),
		reserve1:           new(big.Int).Set(p.reserve1),
		blockTimestampLast: p.blockTimestampLast,
	}
}

func (p *Pair) restore(snap pairSnapshot) {
	p.reserve0 = snap.reserve0
	p.reserve1 = snap.reserve1
	p.blockTimestampLast = snap.blockTimestampLast
}
