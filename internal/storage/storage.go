package storage

import (
	"context"

	"poolFilter/internal/model"
)

// Sink receives the pools kept by a filter run.
type Sink interface {
	PutFilterRun(ctx context.Context, run model.FilterRun, pools []model.FilteredPool) error
}
