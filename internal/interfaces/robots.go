package interfaces

import (
	"context"

	"mt5-wrapper/internal/types"
)

// RobotRegistry correlates installed expert advisors with their magic numbers.
type RobotRegistry interface {
	List(ctx context.Context) ([]types.Robot, error)
}
