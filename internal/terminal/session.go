package terminal

import (
	"context"
	"sync"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/store"
)

// PersistentProvider shares one gateway session across all requests. The
// handshake happens once, lazily; release is a no-op. Requires the gateway
// to accept concurrent read-only queries on a single session.
type PersistentProvider struct {
	client *Client

	mu        sync.Mutex
	connected bool
}

var _ interfaces.SessionProvider = (*PersistentProvider)(nil)

func NewPersistentProvider(client *Client) *PersistentProvider {
	return &PersistentProvider{client: client}
}

func (p *PersistentProvider) Acquire(ctx context.Context) (interfaces.Terminal, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		if err := p.client.Initialize(ctx); err != nil {
			return nil, nil, err
		}
		p.connected = true
		logger.Info(ctx, "Persistent terminal session established")
	}

	return p.client, func() {}, nil
}

// Close tears the shared session down at process shutdown.
func (p *PersistentProvider) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		if err := p.client.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "Failed to shut down persistent session", "error", err)
		}
		p.connected = false
	}
}

// PerRequestProvider opens a fresh gateway session per acquire and tears it
// down in the release func, on every exit path.
type PerRequestProvider struct {
	client *Client
}

var _ interfaces.SessionProvider = (*PerRequestProvider)(nil)

func NewPerRequestProvider(client *Client) *PerRequestProvider {
	return &PerRequestProvider{client: client}
}

func (p *PerRequestProvider) Acquire(ctx context.Context) (interfaces.Terminal, func(), error) {
	if err := p.client.Initialize(ctx); err != nil {
		return nil, nil, err
	}

	release := func() {
		// Shutdown runs detached from the request context so a cancelled
		// request still releases the session.
		if err := p.client.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "Failed to shut down terminal session", "error", err)
		}
	}
	return p.client, release, nil
}

// NewSessionProvider selects the lifecycle policy from configuration.
func NewSessionProvider(cfg *store.Config, client *Client) interfaces.SessionProvider {
	if cfg.Terminal.ConnectionPolicy == store.PolicyPersistent {
		return NewPersistentProvider(client)
	}
	return NewPerRequestProvider(client)
}
