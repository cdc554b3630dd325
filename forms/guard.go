package forms

import "sync"

// submitGuard rejects a second submit while one is running.
type submitGuard struct {
	mu      sync.Mutex
	running bool
}

func (g *submitGuard) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

func (g *submitGuard) end() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

func (g *submitGuard) active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
