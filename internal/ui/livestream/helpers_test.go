package livestream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

var errBackendDown = errors.New("backend down")

// stubSource answers from fixed envelopes and counts calls.
type stubSource struct {
	mu            sync.Mutex
	active        model.ActiveResponse
	upcoming      model.UpcomingResponse
	activeErr     error
	upcomingErr   error
	activeCalls   int
	upcomingCalls int
}

func (s *stubSource) Active(ctx context.Context) (model.ActiveResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCalls++
	return s.active, s.activeErr
}

func (s *stubSource) Upcoming(ctx context.Context) (model.UpcomingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upcomingCalls++
	return s.upcoming, s.upcomingErr
}

func (s *stubSource) set(fn func(*stubSource)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *stubSource) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCalls, s.upcomingCalls
}

// scriptedSource hands each Active call its own response, optionally held
// until the test releases it.
type scriptedSource struct {
	mu       sync.Mutex
	calls    int
	returned int
	steps    []scriptedStep
}

type scriptedStep struct {
	active  model.ActiveResponse
	release chan struct{}
}

func (s *scriptedSource) Active(ctx context.Context) (model.ActiveResponse, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()
	if idx >= len(s.steps) {
		return model.ActiveResponse{Success: true}, nil
	}
	step := s.steps[idx]
	if step.release != nil {
		select {
		case <-step.release:
		case <-ctx.Done():
			return model.ActiveResponse{}, ctx.Err()
		}
	}
	s.mu.Lock()
	s.returned++
	s.mu.Unlock()
	return step.active, nil
}

func (s *scriptedSource) Upcoming(ctx context.Context) (model.UpcomingResponse, error) {
	return model.UpcomingResponse{Success: true}, nil
}

func (s *scriptedSource) finished() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.returned
}

func (s *scriptedSource) started() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeClock lets tests fire ticks by hand.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	created chan struct{}
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, created: make(chan struct{}, 8)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	t := &fakeTicker{ch: make(chan time.Time)}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	c.created <- struct{}{}
	return t
}

// Advance moves time forward and delivers one tick to every live ticker.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()
	for _, t := range tickers {
		t.fire(now)
	}
}

func (c *fakeClock) waitForTicker() {
	<-c.created
}

type fakeTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) fire(now time.Time) {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}
	select {
	case t.ch <- now:
	case <-time.After(time.Second):
	}
}

func waitFor(ch <-chan Observation) (Observation, bool) {
	select {
	case obs := <-ch:
		return obs, true
	case <-time.After(2 * time.Second):
		return Observation{}, false
	}
}

func broadcastAt(id int64, title string, scheduled time.Time) model.Broadcast {
	return model.Broadcast{
		ID:          id,
		Title:       title,
		StreamURL:   "https://example.org/live",
		IsScheduled: true,
		ScheduledAt: scheduled.Format(time.RFC3339),
	}
}
