package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestVerdictJSONRoundTrip(t *testing.T) {
	original := Verdict{
		ChainID:     1,
		Token:       "0x2222222222222222222222222222222222222222",
		TokenSymbol: "SCAM",
		Pair:        "0x3333333333333333333333333333333333333333",
		SafeToken:   "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		Kind:        VerdictFeeOnTransfer,
		BuyTaxBps:   0,
		SellTaxBps:  500,
		Reason:      "",
		BlockNumber: 19000000,
		CheckedAt:   "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Verdict
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestVerdictKindValues(t *testing.T) {
	kinds := []VerdictKind{VerdictClean, VerdictFeeOnTransfer, VerdictHoneypot}
	seen := make(map[VerdictKind]struct{})
	for _, kind := range kinds {
		if kind == "" {
			t.Fatalf("empty verdict kind")
		}
		if _, ok := seen[kind]; ok {
			t.Fatalf("duplicate verdict kind: %s", kind)
		}
		seen[kind] = struct{}{}
	}
}
