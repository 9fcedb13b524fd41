package livestream

import (
	"context"
	"sync"

	"github.com/Its-donkey/shrine-live/logging"
)

// Store persists the latest observation.
type Store interface {
	Load(ctx context.Context) (Observation, bool, error)
	Save(ctx context.Context, obs Observation) error
}

// Feed holds the newest observation produced by the server-side poller so
// that page renders can start from it instead of waiting for a tick.
type Feed struct {
	mu      sync.Mutex
	store   Store
	lastSeq uint64
	logger  *logging.Logger
}

// NewFeed wraps store.
func NewFeed(store Store, logger *logging.Logger) *Feed {
	return &Feed{store: store, logger: logger}
}

// Publish records obs unless a newer tick has already been recorded.
// It reports whether obs was stored.
func (f *Feed) Publish(ctx context.Context, obs Observation) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obs.Seq < f.lastSeq {
		return false
	}
	if err := f.store.Save(ctx, obs); err != nil {
		f.logger.Error("livestream", "store observation", err, map[string]any{"seq": obs.Seq})
		return false
	}
	f.lastSeq = obs.Seq
	return true
}

// Latest returns the stored observation, if any.
func (f *Feed) Latest(ctx context.Context) (Observation, bool) {
	obs, ok, err := f.store.Load(ctx)
	if err != nil {
		f.logger.Warn("livestream", "load observation", map[string]any{"error": err.Error()})
		return Observation{}, false
	}
	return obs, ok
}

// Visibility returns the state a fresh mount would have after applying the
// latest observation.
func (f *Feed) Visibility(ctx context.Context, clearOnLapse bool) Visibility {
	var v Visibility
	if obs, ok := f.Latest(ctx); ok {
		v.Apply(obs, clearOnLapse)
	}
	return v
}
