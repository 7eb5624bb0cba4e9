package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// basisPointDivisor is 100% in basis points.
var basisPointDivisor = big.NewInt(10000)

// TokenBehavior defines how a token executes a transfer against the ledger.
// Behaviors model the adversarial contracts a honeypot probe has to survive:
// the ledger debits and credits exactly what the behavior decides, and the
// behavior's return value is as trustworthy as the token that implements it.
type TokenBehavior interface {
	Transfer(l *Ledger, token, from, to common.Address, amount *big.Int) error
}

// StandardToken transfers the full amount or fails on insufficient balance.
type StandardToken struct{}

func (StandardToken) Transfer(l *Ledger, token, from, to common.Address, amount *big.Int) error {
	if err := l.debit(token, from, amount); err != nil {
		return err
	}
	l.credit(token, to, amount)
	return nil
}

// FeeOnTransferToken deducts TaxBps from every transfer; the recipient
// receives less than the sender sent and the difference is burned.
type FeeOnTransferToken struct {
	TaxBps int64
}

func (t FeeOnTransferToken) Transfer(l *Ledger, token, from, to common.Address, amount *big.Int) error {
	if err := l.debit(token, from, amount); err != nil {
		return err
	}
	kept := new(big.Int).Sub(basisPointDivisor, big.NewInt(t.TaxBps))
	credited := new(big.Int).Mul(amount, kept)
	credited.Div(credited, basisPointDivisor)
	l.credit(token, to, credited)
	return nil
}

// DirectionalFeeToken taxes buys and sells at different rates. A transfer
// leaving Pool is a buy; everything else is a sell.
type DirectionalFeeToken struct {
	Pool       common.Address
	BuyTaxBps  int64
	SellTaxBps int64
}

func (t DirectionalFeeToken) Transfer(l *Ledger, token, from, to common.Address, amount *big.Int) error {
	tax := t.SellTaxBps
	if from == t.Pool {
		tax = t.BuyTaxBps
	}
	return FeeOnTransferToken{TaxBps: tax}.Transfer(l, token, from, to, amount)
}

// SellBlockingToken is the classic honeypot: transfers out of Pool succeed
// (anyone can buy), transfers from any other holder are rejected (nobody can
// sell).
type SellBlockingToken struct {
	Pool common.Address
}

func (t SellBlockingToken) Transfer(l *Ledger, token, from, to common.Address, amount *big.Int) error {
	if from != t.Pool {
		return fmt.Errorf("%w: sells disabled for %s", ErrTransferBlocked, token.Hex())
	}
	return StandardToken{}.Transfer(l, token, from, to, amount)
}

// BlocklistToken rejects transfers touching a blocked holder.
type BlocklistToken struct {
	Blocked map[common.Address]bool
}

func (t BlocklistToken) Transfer(l *Ledger, token, from, to common.Address, amount *big.Int) error {
	if t.Blocked[from] || t.Blocked[to] {
		return fmt.Errorf("%w: holder blocklisted", ErrTransferBlocked)
	}
	return StandardToken{}.Transfer(l, token, from, to, amount)
}

// SilentFailToken reports success but moves nothing. Tokens like this forge
// their transfer result; only a balance diff catches them.
type SilentFailToken struct{}

func (SilentFailToken) Transfer(*Ledger, common.Address, common.Address, common.Address, *big.Int) error {
	return nil
}
