package listview

import (
	"sync"
	"time"
)

// Gate throttles a repeating trigger to at most one fire per minimum
// interval. Overlapping visibility events from a scroll sentinel collapse
// into a single load-more request.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastFire    time.Time
	now         func() time.Time
}

func NewGate(minInterval time.Duration) *Gate {
	return &Gate{minInterval: minInterval, now: time.Now}
}

// SetClock overrides the gate's notion of now. Tests only.
func (g *Gate) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// TryFire reports whether the trigger may fire now, and records the fire
// time when it does.
func (g *Gate) TryFire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !g.lastFire.IsZero() && now.Sub(g.lastFire) < g.minInterval {
		return false
	}
	g.lastFire = now
	return true
}
