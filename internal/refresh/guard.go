package refresh

import (
	"context"
	"sync"
)

// Guard serialises work per record id within one process. Callers defer the
// release func they receive.
type Guard struct {
	mu     sync.Mutex
	active map[string]chan struct{}
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{active: make(map[string]chan struct{})}
}

// Acquire blocks until id is free or ctx is done
func (g *Guard) Acquire(ctx context.Context, id string) (func(), error) {
	for {
		g.mu.Lock()
		held, busy := g.active[id]
		if !busy {
			release := g.hold(id)
			g.mu.Unlock()
			return release, nil
		}
		g.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryAcquire takes id when it is free and reports whether it did
func (g *Guard) TryAcquire(id string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[id]; busy {
		return nil, false
	}
	return g.hold(id), true
}

// Active reports whether id is currently held
func (g *Guard) Active(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[id]
	return busy
}

// hold must be called with mu held
func (g *Guard) hold(id string) func() {
	done := make(chan struct{})
	g.active[id] = done
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, id)
			g.mu.Unlock()
			close(done)
		})
	}
}
