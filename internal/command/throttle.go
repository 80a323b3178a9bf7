package command

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type throttleWindow struct {
	start  time.Time
	usages int
}

// Throttles counts uses per user within a fixed window.
type Throttles struct {
	limit Throttling
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*throttleWindow
}

func NewThrottles(limit Throttling) *Throttles {
	return &Throttles{limit: limit, now: time.Now, windows: make(map[string]*throttleWindow)}
}

// Take records a use by userID when the window still has room. Otherwise it
// returns false and the time until the window resets, never negative.
func (t *Throttles) Take(userID string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	w, ok := t.windows[userID]
	if !ok || !now.Before(w.start.Add(t.limit.Duration)) {
		w = &throttleWindow{start: now}
		t.windows[userID] = w
	}
	if w.usages+1 > t.limit.Usages {
		remaining := w.start.Add(t.limit.Duration).Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		return false, remaining
	}
	w.usages++
	return true, 0
}

// Sweep drops expired windows and returns how many were removed.
func (t *Throttles) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	removed := 0
	for id, w := range t.windows {
		if !now.Before(w.start.Add(t.limit.Duration)) {
			delete(t.windows, id)
			removed++
		}
	}
	return removed
}

// RunThrottleSweeper sweeps every throttled command in reg on each tick until ctx is done.
func RunThrottleSweeper(ctx context.Context, reg *Registry, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, c := range reg.Commands() {
				if th := c.Throttles(); th != nil {
					removed += th.Sweep()
				}
			}
			if removed > 0 {
				log.Debugf("[Throttle] swept %d expired windows", removed)
			}
		}
	}
}
