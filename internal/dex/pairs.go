package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"honeyScope/internal/model"
)

// ParsePairCreated decodes a factory PairCreated log into a pair record.
// token0 and token1 are indexed; the pair address rides in the data.
func ParsePairCreated(chainID uint64, log types.Log) (model.Pair, error) {
	if len(log.Topics) < 3 {
		return model.Pair{}, fmt.Errorf("PairCreated log has %d topics, want 3", len(log.Topics))
	}
	if log.Topics[0] != PairCreatedTopic {
		return model.Pair{}, fmt.Errorf("unexpected topic0 %s", log.Topics[0].Hex())
	}

	factoryABI, err := V2FactoryABI()
	if err != nil {
		return model.Pair{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := factoryABI.Unpack("PairCreated", log.Data)
	if err != nil {
		return model.Pair{}, fmt.Errorf("unpack PairCreated: %w", err)
	}
	if len(values) < 1 {
		return model.Pair{}, fmt.Errorf("PairCreated data has no pair address")
	}
	pairAddr, err := asAddress(values[0])
	if err != nil {
		return model.Pair{}, fmt.Errorf("pair address: %w", err)
	}

	return model.Pair{
		ChainID:        chainID,
		Address:        pairAddr.Hex(),
		Token0:         common.BytesToAddress(log.Topics[1].Bytes()).Hex(),
		Token1:         common.BytesToAddress(log.Topics[2].Bytes()).Hex(),
		FirstSeenBlock: log.BlockNumber,
	}, nil
}
