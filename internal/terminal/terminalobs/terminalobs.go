package terminalobs

import (
	"context"
	"time"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/metrics"
	"mt5-wrapper/internal/trace"
	"mt5-wrapper/internal/types"
)

// observableTerminal wraps a Terminal with observability (logging, tracing, metrics)
type observableTerminal struct {
	terminal interfaces.Terminal
}

// Compile-time interface check
var _ interfaces.Terminal = (*observableTerminal)(nil)

// Wrap wraps a terminal with observability middleware
func Wrap(terminal interfaces.Terminal) interfaces.Terminal {
	return &observableTerminal{
		terminal: terminal,
	}
}

// observableProvider wraps every session handed out by a SessionProvider.
type observableProvider struct {
	provider interfaces.SessionProvider
}

var _ interfaces.SessionProvider = (*observableProvider)(nil)

// WrapProvider returns a SessionProvider whose sessions carry the
// observability middleware.
func WrapProvider(provider interfaces.SessionProvider) interfaces.SessionProvider {
	return &observableProvider{provider: provider}
}

func (op *observableProvider) Acquire(ctx context.Context) (interfaces.Terminal, func(), error) {
	term, release, err := op.provider.Acquire(ctx)
	metrics.IncTerminalCall("acquire", outcome(err, false))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to acquire terminal session", err)
		return nil, nil, err
	}
	return Wrap(term), release, nil
}

func outcome(err error, empty bool) string {
	switch {
	case err != nil:
		return "error"
	case empty:
		return "empty"
	default:
		return "ok"
	}
}

func (ot *observableTerminal) GetPosition(ctx context.Context, ticket int64) (*types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetPosition")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching position", "ticket", ticket)

	p, err := ot.terminal.GetPosition(ctx, ticket)
	metrics.IncTerminalCall("get_position", outcome(err, p == nil))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch position", err, "ticket", ticket)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Position fetched", "ticket", ticket, "found", p != nil)
	return p, nil
}

func (ot *observableTerminal) GetPositions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetPositions")
	defer span.End()

	ps, err := ot.terminal.GetPositions(ctx)
	metrics.IncTerminalCall("get_positions", outcome(err, len(ps) == 0))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Positions fetched", "count", len(ps))
	return ps, nil
}

func (ot *observableTerminal) GetDealByTicket(ctx context.Context, ticket int64) (*types.Deal, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetDealByTicket")
	defer span.End()

	d, err := ot.terminal.GetDealByTicket(ctx, ticket)
	metrics.IncTerminalCall("get_deal", outcome(err, d == nil))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch deal", err, "ticket", ticket)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Deal fetched", "ticket", ticket, "found", d != nil)
	return d, nil
}

func (ot *observableTerminal) GetDealsByPosition(ctx context.Context, positionID int64) ([]types.Deal, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetDealsByPosition")
	defer span.End()

	ds, err := ot.terminal.GetDealsByPosition(ctx, positionID)
	metrics.IncTerminalCall("get_deals_by_position", outcome(err, len(ds) == 0))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch deals for position", err, "position_id", positionID)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Deals fetched for position", "position_id", positionID, "count", len(ds))
	return ds, nil
}

func (ot *observableTerminal) GetDealsInRange(ctx context.Context, from, to time.Time) ([]types.Deal, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetDealsInRange")
	defer span.End()

	ds, err := ot.terminal.GetDealsInRange(ctx, from, to)
	metrics.IncTerminalCall("get_deals_in_range", outcome(err, len(ds) == 0))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch deals in range", err,
			"from", from.Format(time.RFC3339),
			"to", to.Format(time.RFC3339),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Deals fetched in range", "count", len(ds))
	return ds, nil
}

func (ot *observableTerminal) GetOrders(ctx context.Context, ticket int64) ([]types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetOrders")
	defer span.End()

	ords, err := ot.terminal.GetOrders(ctx, ticket)
	metrics.IncTerminalCall("get_orders", outcome(err, len(ords) == 0))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch orders", err, "ticket", ticket)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Orders fetched", "ticket", ticket, "count", len(ords))
	return ords, nil
}

func (ot *observableTerminal) GetLastTick(ctx context.Context, symbol string) (*types.Tick, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetLastTick")
	defer span.End()

	t, err := ot.terminal.GetLastTick(ctx, symbol)
	metrics.IncTerminalCall("get_last_tick", outcome(err, t == nil))
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch last tick", err, "symbol", symbol)
		return nil, err
	}

	return t, nil
}
