package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/metrics"
	"mt5-wrapper/internal/store"
	"mt5-wrapper/internal/types"
)

// Selector serves bounded, deterministically ordered queries over the deal
// history. It never scans outside the configured lookback window.
type Selector struct {
	sessions     interfaces.SessionProvider
	lookback     time.Duration
	anchorSymbol string
	now          func() time.Time
}

var _ interfaces.History = (*Selector)(nil)

func NewSelector(cfg *store.Config, sessions interfaces.SessionProvider) *Selector {
	return &Selector{
		sessions:     sessions,
		lookback:     time.Duration(cfg.History.LookbackDays) * 24 * time.Hour,
		anchorSymbol: cfg.History.AnchorSymbol,
		now:          time.Now,
	}
}

// LatestDeals returns at most count deals, most recent first. Ordering is
// time descending with ties broken by ticket descending, so repeated calls
// over the same history are deterministic. Fewer than count deals in the
// window is not an error; a failed fetch is.
func (s *Selector) LatestDeals(ctx context.Context, count int) ([]types.Deal, error) {
	if count <= 0 {
		return []types.Deal{}, nil
	}

	term, release, err := s.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ref := s.referenceTime(ctx, term)
	from := ref.Add(-s.lookback)

	deals, err := term.GetDealsInRange(ctx, from, ref)
	if err != nil {
		return nil, fmt.Errorf("latest deals: %w", err)
	}

	sort.Slice(deals, func(i, j int) bool {
		if deals[i].Time != deals[j].Time {
			return deals[i].Time > deals[j].Time
		}
		return deals[i].Ticket > deals[j].Ticket
	})

	if len(deals) > count {
		deals = deals[:count]
	}
	return deals, nil
}

// DealsBetween returns all deals in [from, to], time descending.
func (s *Selector) DealsBetween(ctx context.Context, from, to time.Time) ([]types.Deal, error) {
	term, release, err := s.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	deals, err := term.GetDealsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("deals between: %w", err)
	}

	sort.Slice(deals, func(i, j int) bool {
		if deals[i].Time != deals[j].Time {
			return deals[i].Time > deals[j].Time
		}
		return deals[i].Ticket > deals[j].Ticket
	})
	return deals, nil
}

// referenceTime anchors the lookback window on the terminal's own clock,
// approximated by the last tick of the anchor symbol. The wrapper's local
// clock is the degraded fallback when the tick is unavailable.
func (s *Selector) referenceTime(ctx context.Context, term interfaces.Terminal) time.Time {
	tick, err := term.GetLastTick(ctx, s.anchorSymbol)
	if err == nil && tick != nil && tick.Time > 0 {
		return time.Unix(tick.Time, 0).UTC()
	}

	metrics.IncDegradedLookup("clock")
	logger.Warn(ctx, "Server clock unavailable, falling back to local clock",
		"anchor_symbol", s.anchorSymbol, "error", err)
	return s.now().UTC()
}
