// Package ledger provides an in-memory token/pool state store with atomic
// transactions. It stands in for the chain state a simulation would normally
// run against: every multi-step sequence executes under Transact, which either
// commits all effects or discards them, so a failing sub-step can never leave
// partial state behind.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTransferBlocked is returned by adversarial token behaviors that reject the transfer.
	ErrTransferBlocked = errors.New("transfer blocked")
	// ErrUnknownPair is returned when a pair address is not registered.
	ErrUnknownPair = errors.New("unknown pair")
)

// Ledger holds token balances and registered pairs.
//
// Methods on Ledger do not lock; Transact serializes whole call sequences and
// provides rollback. Callers must not touch the ledger concurrently outside
// Transact.
type Ledger struct {
	mu sync.Mutex

	balances  map[common.Address]map[common.Address]*big.Int // token -> holder -> amount
	behaviors map[common.Address]TokenBehavior
	pairs     map[common.Address]*Pair
	timestamp uint32
}

func New() *Ledger {
	return &Ledger{
		balances:  make(map[common.Address]map[common.Address]*big.Int),
		behaviors: make(map[common.Address]TokenBehavior),
		pairs:     make(map[common.Address]*Pair),
	}
}

// SetTimestamp sets the ledger clock used for pair reserve timestamps.
func (l *Ledger) SetTimestamp(ts uint32) {
	l.timestamp = ts
}

// RegisterToken attaches a transfer behavior to a token address. Tokens
// without a registered behavior transfer as standard ERC20.
func (l *Ledger) RegisterToken(token common.Address, behavior TokenBehavior) {
	l.behaviors[token] = behavior
}

// RegisterPair adds a pair to the ledger.
func (l *Ledger) RegisterPair(p *Pair) {
	l.pairs[p.Address] = p
}

// PairAt returns the registered pair for an address.
func (l *Ledger) PairAt(address common.Address) (*Pair, error) {
	p, ok := l.pairs[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, address.Hex())
	}
	return p, nil
}

// Mint credits a holder with freshly created tokens. This is the hydration
// hook: the analogue of writing a balance storage slot on a forked chain.
func (l *Ledger) Mint(token, holder common.Address, amount *big.Int) {
	l.credit(token, holder, amount)
}

// BalanceOf returns a copy of the holder's balance for a token.
func (l *Ledger) BalanceOf(token, holder common.Address) *big.Int {
	holders, ok := l.balances[token]
	if !ok {
		return new(big.Int)
	}
	balance, ok := holders[holder]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}

// Transfer moves amount of token from one holder to another through the
// token's registered behavior. The amount actually credited is whatever the
// behavior decides; callers that care must measure balances, not trust the
// call.
func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	behavior, ok := l.behaviors[token]
	if !ok {
		behavior = StandardToken{}
	}
	return behavior.Transfer(l, token, from, to, amount)
}

// Transact runs fn against the ledger under an exclusive lock. If fn returns
// an error every state change it made is rolled back.
func (l *Ledger) Transact(fn func(*Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshot()
	if err := fn(l); err != nil {
		l.restore(snap)
		return err
	}
	return nil
}

func (l *Ledger) credit(token, holder common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	holders, ok := l.balances[token]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		l.balances[token] = holders
	}
	balance, ok := holders[holder]
	if !ok {
		balance = new(big.Int)
		holders[holder] = balance
	}
	balance.Add(balance, amount)
}

func (l *Ledger) debit(token, holder common.Address, amount *big.Int) error {
	holders, ok := l.balances[token]
	if !ok {
		return fmt.Errorf("%w: %s holds no %s", ErrInsufficientBalance, holder.Hex(), token.Hex())
	}
	balance, ok := holders[holder]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds no %s", ErrInsufficientBalance, holder.Hex(), token.Hex())
	}
	balance.Sub(balance, amount)
	return nil
}

type ledgerSnapshot struct {
	balances map[common.Address]map[common.Address]*big.Int
	pairs    map[common.Address]pairSnapshot
}

func (l *Ledger) snapshot() ledgerSnapshot {
	snap := ledgerSnapshot{
		balances: make(map[common.Address]map[common.Address]*big.Int, len(l.balances)),
		pairs:    make(map[common.Address]pairSnapshot, len(l.pairs)),
	}
	for token, holders := range l.balances {
		copied := make(map[common.Address]*big.Int, len(holders))
		for holder, balance := range holders {
			copied[holder] = new(big.Int).Set(balance)
		}
		snap.balances[token] = copied
	}
	for address, pair := range l.pairs {
		snap.pairs[address] = pair.snapshot()
	}
	return snap
}

func (l *Ledger) restore(snap ledgerSnapshot) {
	l.balances = snap.balances
	for address, pairSnap := range snap.pairs {
		if pair, ok := l.pairs[address]; ok {
			pair.restore(pairSnap)
		}
	}
}
