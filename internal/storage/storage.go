package storage

import (
	"context"

	"bridgeWatch/internal/model"
)

// Storage defines a sink for extracted bridge actions.
type Storage interface {
	PutActionBatch(ctx context.Context, records []model.ActionRecord) error
}
