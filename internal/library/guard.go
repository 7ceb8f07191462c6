package library

import (
	"context"
	"sync"
)

// Guard admits at most one holder at a time. Each holder gets a context that
// is cancelled when the holder releases or when Cancel is called.
type Guard struct {
	mu     sync.Mutex
	seq    uint64
	holder uint64
	cancel context.CancelFunc
}

// Acquire takes the slot or fails with ErrBusy. The returned release func is
// bound to this holder: calling it after Cancel, or twice, never clears a
// newer holder.
func (g *Guard) Acquire(ctx context.Context) (context.Context, func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.holder != 0 {
		return nil, nil, ErrBusy
	}

	g.seq++
	id := g.seq
	held, cancel := context.WithCancel(ctx)
	g.holder = id
	g.cancel = cancel

	release := func() {
		g.mu.Lock()
		if g.holder == id {
			g.holder = 0
			g.cancel = nil
		}
		g.mu.Unlock()
		cancel()
	}
	return held, release, nil
}

// Cancel clears the slot and cancels the current holder, if any. It reports
// whether a holder was cancelled.
func (g *Guard) Cancel() bool {
	g.mu.Lock()
	cancel := g.cancel
	g.holder = 0
	g.cancel = nil
	g.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Busy reports whether the slot is held.
func (g *Guard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder != 0
}
