package probe

import "fmt"

// BlockRange is an inclusive span of blocks covered by one factory log query.
type BlockRange struct {
	From uint64
	To   uint64
}

// SplitRange cuts the scan window into spans of at most batchSize blocks, so
// PairCreated queries stay under RPC provider range limits.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; start <= to; {
		end := to
		if span := to - start + 1; span > batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
