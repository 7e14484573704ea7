package inflight

import (
	"context"
	"sync"
)

// LocalGuard tracks in-flight keys in process memory.
type LocalGuard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewLocalGuard creates an empty guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{pending: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.pending[key]; busy {
		return nil, ErrBusy
	}
	g.pending[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, key)
			g.mu.Unlock()
		})
	}, nil
}

// Len reports how many keys are currently held.
func (g *LocalGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
