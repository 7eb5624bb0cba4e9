package model

// Pair represents a V2 pair discovered from a factory.
type Pair struct {
	ChainID        uint64 `json:"chain_id"`
	Address        string `json:"address"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	FirstSeenBlock uint64 `json:"first_seen_block"`
}
