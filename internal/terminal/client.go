package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"mt5-wrapper/internal/api"
	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/store"
	"mt5-wrapper/internal/types"
)

// ErrUnavailable marks failures of the terminal gateway itself: connection
// refused, handshake rejected, or a 5xx answer. Callers surface it as a
// service-unavailable outcome and may retry later.
var ErrUnavailable = errors.New("terminal unavailable")

// Client talks to the MT5 gateway, the HTTP bridge running next to the
// terminal. Every query is read-only.
type Client struct {
	api *api.Client
}

var _ interfaces.Terminal = (*Client)(nil)

func NewClient(cfg *store.Config) *Client {
	opts := []api.ClientOption{
		api.WithBaseURL(cfg.Terminal.BaseURL),
		api.WithTimeout(time.Duration(cfg.Terminal.TimeoutSeconds) * time.Second),
		api.WithLogging(true),
	}
	if cfg.Terminal.APIKeyEnv != "" {
		if key := os.Getenv(cfg.Terminal.APIKeyEnv); key != "" {
			opts = append(opts, api.WithHeader("X-Api-Key", key))
		}
	}
	return &Client{api: api.NewClient(opts...)}
}

// Initialize performs the gateway connection handshake.
func (c *Client) Initialize(ctx context.Context) error {
	if _, err := c.api.POST(ctx, "/initialize", nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Shutdown tears the gateway session down. Errors are returned so callers
// can log them, but a failed shutdown never fails a request.
func (c *Client) Shutdown(ctx context.Context) error {
	if _, err := c.api.POST(ctx, "/shutdown", nil); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (c *Client) GetPosition(ctx context.Context, ticket int64) (*types.Position, error) {
	resp, err := c.api.GET(ctx, fmt.Sprintf("/positions/%d", ticket))
	if err != nil {
		return nil, fmt.Errorf("%w: get position %d: %v", ErrUnavailable, ticket, err)
	}
	if resp.NotFound() {
		return nil, nil
	}
	var p types.Position
	if err := resp.ParseJSON(&p); err != nil {
		return nil, fmt.Errorf("get position %d: %w", ticket, err)
	}
	return &p, nil
}

func (c *Client) GetPositions(ctx context.Context) ([]types.Position, error) {
	resp, err := c.api.GET(ctx, "/positions")
	if err != nil {
		return nil, fmt.Errorf("%w: get positions: %v", ErrUnavailable, err)
	}
	if resp.NotFound() {
		return []types.Position{}, nil
	}
	var ps []types.Position
	if err := resp.ParseJSON(&ps); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return ps, nil
}

func (c *Client) GetDealByTicket(ctx context.Context, ticket int64) (*types.Deal, error) {
	resp, err := c.api.GET(ctx, fmt.Sprintf("/deals/%d", ticket))
	if err != nil {
		return nil, fmt.Errorf("%w: get deal %d: %v", ErrUnavailable, ticket, err)
	}
	if resp.NotFound() {
		return nil, nil
	}
	var d types.Deal
	if err := resp.ParseJSON(&d); err != nil {
		return nil, fmt.Errorf("get deal %d: %w", ticket, err)
	}
	return &d, nil
}

func (c *Client) GetDealsByPosition(ctx context.Context, positionID int64) ([]types.Deal, error) {
	resp, err := c.api.GET(ctx, fmt.Sprintf("/deals?position_id=%d", positionID))
	if err != nil {
		return nil, fmt.Errorf("%w: get deals for position %d: %v", ErrUnavailable, positionID, err)
	}
	if resp.NotFound() {
		return []types.Deal{}, nil
	}
	var ds []types.Deal
	if err := resp.ParseJSON(&ds); err != nil {
		return nil, fmt.Errorf("get deals for position %d: %w", positionID, err)
	}
	return ds, nil
}

func (c *Client) GetDealsInRange(ctx context.Context, from, to time.Time) ([]types.Deal, error) {
	path := fmt.Sprintf("/deals?from=%d&to=%d", from.Unix(), to.Unix())
	resp, err := c.api.GET(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: get deals in range: %v", ErrUnavailable, err)
	}
	if resp.NotFound() {
		return []types.Deal{}, nil
	}
	var ds []types.Deal
	if err := resp.ParseJSON(&ds); err != nil {
		return nil, fmt.Errorf("get deals in range: %w", err)
	}
	return ds, nil
}

func (c *Client) GetOrders(ctx context.Context, ticket int64) ([]types.Order, error) {
	resp, err := c.api.GET(ctx, fmt.Sprintf("/orders/%d", ticket))
	if err != nil {
		return nil, fmt.Errorf("%w: get orders for ticket %d: %v", ErrUnavailable, ticket, err)
	}
	if resp.NotFound() {
		return []types.Order{}, nil
	}
	var ords []types.Order
	if err := resp.ParseJSON(&ords); err != nil {
		return nil, fmt.Errorf("get orders for ticket %d: %w", ticket, err)
	}
	return ords, nil
}

func (c *Client) GetLastTick(ctx context.Context, symbol string) (*types.Tick, error) {
	resp, err := c.api.GET(ctx, "/ticks/"+symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: get last tick %s: %v", ErrUnavailable, symbol, err)
	}
	if resp.NotFound() {
		return nil, nil
	}
	var t types.Tick
	if err := resp.ParseJSON(&t); err != nil {
		return nil, fmt.Errorf("get last tick %s: %w", symbol, err)
	}
	return &t, nil
}
