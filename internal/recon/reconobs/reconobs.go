package reconobs

import (
	"context"
	"time"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/trace"
	"mt5-wrapper/internal/types"
)

type observableReconciler struct {
	reconciler interfaces.Reconciler
}

var _ interfaces.Reconciler = (*observableReconciler)(nil)

func Wrap(reconciler interfaces.Reconciler) interfaces.Reconciler {
	return &observableReconciler{
		reconciler: reconciler,
	}
}

func (or *observableReconciler) EnrichPosition(ctx context.Context, positionID int64) (types.EnrichedPosition, error) {
	ctx, span := trace.StartSpan(ctx, "recon.EnrichPosition")
	defer span.End()

	start := time.Now()

	result, err := or.reconciler.EnrichPosition(ctx, positionID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Position enrichment failed", err,
			"position_id", positionID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return types.EnrichedPosition{}, err
	}

	logger.InfoSkip(ctx, 1, "Position enrichment completed",
		"position_id", positionID,
		"symbol", result.Symbol,
		"sl", result.SL,
		"tp", result.TP,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (or *observableReconciler) EnrichDeal(ctx context.Context, dealTicket int64) (types.EnrichedTrade, error) {
	ctx, span := trace.StartSpan(ctx, "recon.EnrichDeal")
	defer span.End()

	start := time.Now()

	result, err := or.reconciler.EnrichDeal(ctx, dealTicket)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Deal enrichment failed", err,
			"deal_ticket", dealTicket,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return types.EnrichedTrade{}, err
	}

	logger.InfoSkip(ctx, 1, "Deal enrichment completed",
		"deal_ticket", dealTicket,
		"position_id", result.PositionID,
		"symbol", result.Symbol,
		"close_reason", result.CloseReason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
