// Package state keeps the latest livestream observation for page renders.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
)

// FeedCache maintains an in-memory snapshot of the latest observation.
type FeedCache struct {
	mu      sync.RWMutex
	obs     livestream.Observation
	stored  time.Time
	present bool
	ttl     time.Duration
	now     func() time.Time
}

// NewFeedCache constructs an empty FeedCache. A zero ttl keeps entries forever.
func NewFeedCache(ttl time.Duration) *FeedCache {
	return &FeedCache{ttl: ttl, now: time.Now}
}

// Load returns a copy of the current snapshot.
//
// Callers can safely modify the returned broadcast without affecting the cache.
func (c *FeedCache) Load(ctx context.Context) (livestream.Observation, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.present {
		return livestream.Observation{}, false, nil
	}
	if c.ttl > 0 && c.now().Sub(c.stored) > c.ttl {
		return livestream.Observation{}, false, nil
	}
	return copyObservation(c.obs), true, nil
}

// Save replaces the current snapshot.
func (c *FeedCache) Save(ctx context.Context, obs livestream.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.obs = copyObservation(obs)
	c.stored = c.now()
	c.present = true
	return nil
}

func copyObservation(obs livestream.Observation) livestream.Observation {
	if obs.Broadcast != nil {
		b := *obs.Broadcast
		obs.Broadcast = &b
	}
	return obs
}
