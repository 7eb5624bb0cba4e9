package storage

import (
	"context"

	"honeyScope/internal/model"
)

// Storage defines a sink for discovered pairs and probe verdicts.
type Storage interface {
	PutPairBatch(ctx context.Context, pairs []model.Pair) error
	PutVerdictBatch(ctx context.Context, verdicts []model.Verdict) error
}
