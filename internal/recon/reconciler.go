package recon

import (
	"context"
	"fmt"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/metrics"
	"mt5-wrapper/internal/normalize"
	"mt5-wrapper/internal/types"
)

// Reconciler reconstructs the open→close lifecycle of a trade from the
// terminal's flat record streams. It holds no mutable state between
// requests; every call re-fetches and re-derives its answer.
type Reconciler struct {
	sessions interfaces.SessionProvider
}

var _ interfaces.Reconciler = (*Reconciler)(nil)

func New(sessions interfaces.SessionProvider) *Reconciler {
	return &Reconciler{sessions: sessions}
}

// EnrichPosition merges a live position with the stop-loss/take-profit and
// comment recovered from its originating order. Missing history or a purged
// order are degraded-but-successful paths; only a missing position or a
// terminal failure fail the request.
func (r *Reconciler) EnrichPosition(ctx context.Context, positionID int64) (types.EnrichedPosition, error) {
	term, release, err := r.sessions.Acquire(ctx)
	if err != nil {
		metrics.IncReconciliation("position", "error")
		return types.EnrichedPosition{}, err
	}
	defer release()

	pos, err := term.GetPosition(ctx, positionID)
	if err != nil {
		metrics.IncReconciliation("position", "error")
		return types.EnrichedPosition{}, fmt.Errorf("enrich position %d: %w", positionID, err)
	}
	if pos == nil {
		metrics.IncReconciliation("position", "not_found")
		return types.EnrichedPosition{}, fmt.Errorf("position %d: %w", positionID, ErrNotFound)
	}

	enriched := types.EnrichedPosition{
		Ticket:    pos.Ticket,
		Time:      normalize.UTCFromSeconds(pos.Time),
		Type:      types.OrderTypeName(pos.Type),
		Magic:     pos.Magic,
		Volume:    pos.Volume,
		PriceOpen: pos.PriceOpen,
		SL:        pos.SL,
		TP:        pos.TP,
		Symbol:    pos.Symbol,
		Comment:   pos.Comment,
	}

	deals, err := term.GetDealsByPosition(ctx, positionID)
	if err != nil {
		metrics.IncReconciliation("position", "error")
		return types.EnrichedPosition{}, fmt.Errorf("enrich position %d: deal history: %w", positionID, err)
	}

	opening := openingDeal(deals)
	if opening == nil {
		logger.Debug(ctx, "No opening deal in history, keeping position fields",
			"position_id", positionID, "deals", len(deals))
		metrics.IncDegradedLookup("opening_deal")
		metrics.IncReconciliation("position", "degraded")
		return enriched, nil
	}

	order := r.lookupOrder(ctx, term, opening.OrderID)
	if order == nil {
		metrics.IncDegradedLookup("order")
		metrics.IncReconciliation("position", "degraded")
		logger.Warn(ctx, "Originating order unavailable, keeping position SL/TP",
			"position_id", positionID, "order_ticket", opening.OrderID)
		return enriched, nil
	}

	// The order carries the intent the position record may have lost.
	enriched.SL = order.SL
	enriched.TP = order.TP
	if order.Comment != "" {
		enriched.Comment = order.Comment
	}

	logger.Debug(ctx, "Position enriched from originating order",
		"position_id", positionID,
		"order_ticket", order.Ticket,
		"sl", order.SL,
		"tp", order.TP,
	)
	metrics.IncReconciliation("position", "full")
	return enriched, nil
}

// EnrichDeal treats the given deal as the closing transaction of its
// position and merges in the opening-side attributes recovered from the
// opening deal and its originating order. Lookups that error (not merely
// come back empty) propagate; empty secondary lookups resolve to documented
// defaults.
func (r *Reconciler) EnrichDeal(ctx context.Context, dealTicket int64) (types.EnrichedTrade, error) {
	term, release, err := r.sessions.Acquire(ctx)
	if err != nil {
		metrics.IncReconciliation("deal", "error")
		return types.EnrichedTrade{}, err
	}
	defer release()

	closing, err := term.GetDealByTicket(ctx, dealTicket)
	if err != nil {
		metrics.IncReconciliation("deal", "error")
		return types.EnrichedTrade{}, fmt.Errorf("enrich deal %d: %w", dealTicket, err)
	}
	if closing == nil {
		metrics.IncReconciliation("deal", "not_found")
		return types.EnrichedTrade{}, fmt.Errorf("deal %d: %w", dealTicket, ErrNotFound)
	}

	trade := types.EnrichedTrade{
		DealTicket:  closing.Ticket,
		PositionID:  closing.PositionID,
		Symbol:      closing.Symbol,
		Volume:      closing.Volume,
		MagicNumber: closing.Magic,
		Profit:      closing.Profit,
		Commission:  closing.Commission,
		Swap:        closing.Swap,
		ClosePrice:  closing.Price,
		CloseTime:   dealTimeUTC(closing),
		CloseReason: types.CloseReasonName(closing.Reason),
		// Mirrored from the closing deal until an opening deal proves otherwise.
		OrderType: types.OrderTypeName(closing.Type),
	}

	deals, err := term.GetDealsByPosition(ctx, closing.PositionID)
	if err != nil {
		metrics.IncReconciliation("deal", "error")
		return types.EnrichedTrade{}, fmt.Errorf("enrich deal %d: deal history: %w", dealTicket, err)
	}

	opening := openingDeal(deals)
	if opening == nil {
		// Position history purged: the open side is unrecoverable and stays
		// absent rather than guessed.
		logger.Warn(ctx, "No opening deal for closing deal, open side unrecoverable",
			"deal_ticket", dealTicket, "position_id", closing.PositionID)
		metrics.IncDegradedLookup("opening_deal")
		metrics.IncReconciliation("deal", "degraded")
		return trade, nil
	}

	trade.OpenPrice = opening.Price
	trade.OpenTime = dealTimeUTC(opening)
	trade.OrderType = types.OrderTypeName(opening.Type)
	if trade.MagicNumber == 0 {
		trade.MagicNumber = opening.Magic
	}

	order, err := r.lookupOrderErr(ctx, term, opening.OrderID)
	if err != nil {
		metrics.IncReconciliation("deal", "error")
		return types.EnrichedTrade{}, fmt.Errorf("enrich deal %d: order %d: %w", dealTicket, opening.OrderID, err)
	}
	if order == nil {
		// Order history purged: SL/TP default to zero, explicitly.
		metrics.IncDegradedLookup("order")
		metrics.IncReconciliation("deal", "degraded")
		logger.Debug(ctx, "Originating order unavailable, SL/TP default to zero",
			"deal_ticket", dealTicket, "order_ticket", opening.OrderID)
		return trade, nil
	}

	trade.StopLoss = order.SL
	trade.TakeProfit = order.TP

	metrics.IncReconciliation("deal", "full")
	return trade, nil
}

// openingDeal selects the true opening transaction among all deals sharing a
// position id: entry kind "in", earliest by time. Position increases produce
// additional "in" deals; the earliest wins, ties broken by lowest ticket.
func openingDeal(deals []types.Deal) *types.Deal {
	var best *types.Deal
	for i := range deals {
		d := &deals[i]
		if d.Entry != types.DealEntryIn {
			continue
		}
		if best == nil || earlier(d, best) {
			best = d
		}
	}
	return best
}

func earlier(a, b *types.Deal) bool {
	at, bt := dealMillis(a), dealMillis(b)
	if at != bt {
		return at < bt
	}
	return a.Ticket < b.Ticket
}

// dealMillis prefers the millisecond timestamp; second-resolution records
// from older servers only carry the plain field.
func dealMillis(d *types.Deal) int64 {
	if d.TimeMsc != 0 {
		return d.TimeMsc
	}
	return d.Time * 1000
}

func dealTimeUTC(d *types.Deal) string {
	if d.TimeMsc != 0 {
		return normalize.UTCFromMillis(d.TimeMsc)
	}
	return normalize.UTCFromSeconds(d.Time)
}

// lookupOrder fetches the originating order, swallowing hard errors into the
// degraded path: for live positions a stale SL/TP beats a failed request.
func (r *Reconciler) lookupOrder(ctx context.Context, term interfaces.Terminal, orderTicket int64) *types.Order {
	order, err := r.lookupOrderErr(ctx, term, orderTicket)
	if err != nil {
		logger.Warn(ctx, "Order lookup failed", "order_ticket", orderTicket, "error", err)
		return nil
	}
	return order
}

func (r *Reconciler) lookupOrderErr(ctx context.Context, term interfaces.Terminal, orderTicket int64) (*types.Order, error) {
	if orderTicket == 0 {
		return nil, nil
	}
	orders, err := term.GetOrders(ctx, orderTicket)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}
