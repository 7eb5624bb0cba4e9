package model

import (
	"encoding/json"
)

// VerdictKind classifies a probed token.
type VerdictKind string

const (
	// VerdictClean means both probe legs paid out exactly what the curve predicted.
	VerdictClean VerdictKind = "clean"
	// VerdictFeeOnTransfer means the swaps completed but a leg was shaved by a transfer tax.
	VerdictFeeOnTransfer VerdictKind = "fee_on_transfer"
	// VerdictHoneypot means a transfer or swap was rejected outright, or delivery was zero.
	VerdictHoneypot VerdictKind = "honeypot"
)

// Verdict is the stored result of probing one token against one pair.
type Verdict struct {
	ChainID     uint64      `json:"chain_id"`
	Token       string      `json:"token"`
	TokenSymbol string      `json:"token_symbol,omitempty"`
	Pair        string      `json:"pair"`
	SafeToken   string      `json:"safe_token"`
	Kind        VerdictKind `json:"kind"`
	BuyTaxBps   int64       `json:"buy_tax_bps"`
	SellTaxBps  int64       `json:"sell_tax_bps"`
	Reason      string      `json:"reason,omitempty"`
	BlockNumber uint64      `json:"block_number"`
	CheckedAt   string      `json:"checked_at"`
}

// MarshalJSON ensures Verdict is encoded with stable field names.
func (v Verdict) MarshalJSON() ([]byte, error) {
	type Alias Verdict
	return json.Marshal(Alias(v))
}

// UnmarshalJSON decodes a Verdict from JSON.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	type Alias Verdict
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*v = Verdict(a)
	return nil
}
