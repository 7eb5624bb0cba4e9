// Package sim implements the transfer-then-swap probe: execute one real swap
// against a pool and report both the price-curve-predicted output and the
// balance-verified output. The gap between the two, or an outright failure,
// is the raw material for honeypot and transfer-tax classification.
package sim

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"honeyScope/internal/amm"
	"honeyScope/internal/ledger"
)

var (
	// ErrTransferRejected is returned when the input-token transfer into the
	// pool fails or delivers nothing; the strongest input-side honeypot signal.
	ErrTransferRejected = errors.New("input transfer rejected")
	// ErrSwapRejected is returned when the pool's swap call fails; the
	// strongest output-side honeypot signal.
	ErrSwapRejected = errors.New("pool swap rejected")
	// ErrTokenMismatch is returned when the requested tokens are not the pair's tokens.
	ErrTokenMismatch = errors.New("token mismatch")
)

// Outcome reports one probe swap. PredictedOut is what an untaxed token would
// have paid per the constant-product quote; ActualOut is the measured balance
// delta. ReceivedByPool is how much of AmountIn actually landed in the pool,
// which is the quote's basis.
type Outcome struct {
	AmountIn       *big.Int
	ReceivedByPool *big.Int
	PredictedOut   *big.Int
	ActualOut      *big.Int
}

// Simulator executes probe swaps for one caller against a ledger. It holds no
// state of its own between calls.
type Simulator struct {
	ledger *ledger.Ledger
	caller common.Address
}

func New(l *ledger.Ledger, caller common.Address) *Simulator {
	return &Simulator{ledger: l, caller: caller}
}

// TransferAndSwap runs the full probe sequence atomically:
//
//  1. transfer amountIn of tokenIn from the caller to the pair,
//  2. measure what the pair actually received against its pre-transfer reserve,
//  3. quote the expected output on the received amount,
//  4. swap, requesting exactly the quoted output,
//  5. measure the caller's tokenOut balance delta.
//
// Any failing step discards every effect; no partial state survives.
func (s *Simulator) TransferAndSwap(amountIn *big.Int, pair *ledger.Pair, tokenIn, tokenOut common.Address) (Outcome, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Outcome{}, amm.ErrInvalidInput
	}
	sorted0, sorted1 := amm.SortTokens(tokenIn, tokenOut)
	if sorted0 != pair.Token0 || sorted1 != pair.Token1 {
		return Outcome{}, fmt.Errorf("%w: pair %s does not hold %s/%s",
			ErrTokenMismatch, pair.Address.Hex(), tokenIn.Hex(), tokenOut.Hex())
	}

	outcome := Outcome{AmountIn: new(big.Int).Set(amountIn)}

	err := s.ledger.Transact(func(l *ledger.Ledger) error {
		reserve0, reserve1, _ := pair.Reserves()
		reserveIn, reserveOut := amm.ResolveReserves(reserve0, reserve1, tokenIn, tokenOut)

		if err := l.Transfer(tokenIn, s.caller, pair.Address, amountIn); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferRejected, err)
		}

		// Raw transfers never move reserves, so the reserve read above is the
		// pre-transfer view and the pool-side balance delta is exactly what
		// this transfer delivered. Quoting on the delivered amount, not the
		// nominal one, keeps input-side taxes out of the output comparison.
		received := l.BalanceOf(tokenIn, pair.Address)
		received.Sub(received, reserveIn)
		if received.Sign() <= 0 {
			return fmt.Errorf("%w: pool balance unchanged after transfer", ErrTransferRejected)
		}
		outcome.ReceivedByPool = received

		predicted, err := amm.QuoteOutput(received, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		outcome.PredictedOut = predicted

		before := l.BalanceOf(tokenOut, s.caller)

		amount0Out, amount1Out := new(big.Int), new(big.Int)
		if amm.ZeroForOne(tokenIn, tokenOut) {
			amount1Out = predicted
		} else {
			amount0Out = predicted
		}
		if err := pair.Swap(l, amount0Out, amount1Out, s.caller); err != nil {
			return fmt.Errorf("%w: %v", ErrSwapRejected, err)
		}

		// The delta is the only trustworthy account of what was paid out;
		// the token's own transfer result may be forged.
		after := l.BalanceOf(tokenOut, s.caller)
		outcome.ActualOut = after.Sub(after, before)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}
