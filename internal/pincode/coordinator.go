package pincode

import (
	"context"
	"sync"

	"github.com/piratesdroid/travel-guide/internal/models"
)

// Coordinator runs at most one resolution per record key. Starting a new
// resolution for a key cancels the one in flight, whose caller gets nil.
type Coordinator struct {
	resolver *Resolver

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflight
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewCoordinator wraps r.
func NewCoordinator(r *Resolver) *Coordinator {
	return &Coordinator{resolver: r, inflight: make(map[string]inflight)}
}

// Resolve resolves q on behalf of the record identified by key.
func (c *Coordinator) Resolve(ctx context.Context, key string, q Query) *models.PostalResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if prev, ok := c.inflight[key]; ok {
		prev.cancel()
	}
	c.seq++
	mine := c.seq
	c.inflight[key] = inflight{seq: mine, cancel: cancel}
	c.mu.Unlock()

	res := c.resolver.Resolve(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.inflight[key]
	if !ok || cur.seq != mine {
		return nil
	}
	delete(c.inflight, key)
	return res
}

// InFlight reports how many records are being resolved.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
