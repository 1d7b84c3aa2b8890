package interfaces

import (
	"context"
	"time"

	"mt5-wrapper/internal/types"
)

// History serves bounded queries over the deal history.
type History interface {
	LatestDeals(ctx context.Context, count int) ([]types.Deal, error)
	DealsBetween(ctx context.Context, from, to time.Time) ([]types.Deal, error)
}
