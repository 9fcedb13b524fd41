package livestream

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Its-donkey/shrine-live/logging"
)

type memoryStore struct {
	mu   sync.Mutex
	obs  *Observation
	fail error
}

func (m *memoryStore) Load(ctx context.Context) (Observation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.obs == nil {
		return Observation{}, false, m.fail
	}
	return *m.obs, true, m.fail
}

func (m *memoryStore) Save(ctx context.Context, obs Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.obs = &obs
	return nil
}

func TestFeedDropsStalePublishes(t *testing.T) {
	store := &memoryStore{}
	feed := NewFeed(store, logging.Discard())
	ctx := context.Background()

	if !feed.Publish(ctx, activeObs(2, 1)) {
		t.Fatal("expected first publish to be stored")
	}
	if feed.Publish(ctx, upcomingObs(1, 5)) {
		t.Fatal("older observation must be dropped")
	}
	latest, ok := feed.Latest(ctx)
	if !ok || latest.Seq != 2 || latest.Kind != KindActive {
		t.Fatalf("unexpected latest %+v", latest)
	}
}

func TestFeedVisibilityStartsFromLatest(t *testing.T) {
	feed := NewFeed(&memoryStore{}, logging.Discard())
	ctx := context.Background()

	if v := feed.Visibility(ctx, false); v.View() != nil {
		t.Fatal("empty feed renders nothing")
	}
	feed.Publish(ctx, upcomingObs(1, 3))
	view := feed.Visibility(ctx, false).View()
	if view == nil || view.IsLive || view.Broadcast.ID != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestFeedStoreErrors(t *testing.T) {
	store := &memoryStore{fail: errors.New("redis unavailable")}
	feed := NewFeed(store, logging.Discard())
	ctx := context.Background()

	if feed.Publish(ctx, activeObs(1, 1)) {
		t.Fatal("publish should report failure")
	}
	if _, ok := feed.Latest(ctx); ok {
		t.Fatal("latest should report nothing on error")
	}
}
