package interfaces

import (
	"context"

	"mt5-wrapper/internal/types"
)

// Reconciler reconstructs enriched trade lifecycle views from the flat
// record streams of the terminal.
type Reconciler interface {
	EnrichPosition(ctx context.Context, positionID int64) (types.EnrichedPosition, error)
	EnrichDeal(ctx context.Context, dealTicket int64) (types.EnrichedTrade, error)
}
