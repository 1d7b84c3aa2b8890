package interfaces

import (
	"context"
	"time"

	"mt5-wrapper/internal/types"
)

// Terminal is the read-only record source exposed by the MT5 gateway.
// Lookups by id return nil (not an error) when the record does not exist;
// errors are reserved for transport or terminal failures.
type Terminal interface {
	GetPosition(ctx context.Context, ticket int64) (*types.Position, error)
	GetPositions(ctx context.Context) ([]types.Position, error)
	GetDealByTicket(ctx context.Context, ticket int64) (*types.Deal, error)
	GetDealsByPosition(ctx context.Context, positionID int64) ([]types.Deal, error)
	GetDealsInRange(ctx context.Context, from, to time.Time) ([]types.Deal, error)
	GetOrders(ctx context.Context, ticket int64) ([]types.Order, error)
	GetLastTick(ctx context.Context, symbol string) (*types.Tick, error)
}

// SessionProvider hands out a terminal session for the duration of one
// request. The release func must be called on every exit path; whether it
// tears the session down depends on the configured lifecycle policy.
type SessionProvider interface {
	Acquire(ctx context.Context) (Terminal, func(), error)
}
