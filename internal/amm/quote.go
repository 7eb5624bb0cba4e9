package amm

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// fee: 0.3% => multiplier 997/1000
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
)

var (
	// ErrInvalidInput is returned when the input amount is nil or not strictly positive.
	ErrInvalidInput = errors.New("amount in must be greater than zero")
	// ErrInsufficientLiquidity is returned when either reserve is zero; the curve is undefined.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// QuoteOutput computes the constant-product output for amountIn against the
// given reserves, net of the 0.3% fee:
//
//	amountOut = floor(amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997))
//
// This is the untaxed baseline a well-behaved token would pay out. All
// arithmetic is big.Int, so intermediate products of 256-bit quantities
// cannot overflow.
func QuoteOutput(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidInput
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeDen)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Div(numerator, denominator), nil
}

// SortTokens returns the two addresses in canonical slot order. V2 factories
// order a pair by raw byte comparison of the token addresses; nothing about
// the comparison is semantic, it only has to agree with the pool's layout.
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// ZeroForOne reports whether tokenIn occupies reserve slot zero for this pair.
func ZeroForOne(tokenIn, tokenOut common.Address) bool {
	token0, _ := SortTokens(tokenIn, tokenOut)
	return tokenIn == token0
}

// ResolveReserves maps slot-ordered reserves onto the swap direction, so the
// caller always sees (reserveIn, reserveOut) for its tokenIn/tokenOut pair.
// Getting this mapping wrong quotes against the inverse side of the curve.
func ResolveReserves(reserve0, reserve1 *big.Int, tokenIn, tokenOut common.Address) (reserveIn, reserveOut *big.Int) {
	if ZeroForOne(tokenIn, tokenOut) {
		return reserve0, reserve1
	}
	return reserve1, reserve0
}
