package livestream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Its-donkey/shrine-live/logging"
)

// DefaultInterval is the period between ticks.
const DefaultInterval = 30 * time.Second

// Ticker delivers tick times until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock supplies the current time and periodic tickers.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// NewTicker wraps time.NewTicker.
func (SystemClock) NewTicker(d time.Duration) Ticker { return systemTicker{time.NewTicker(d)} }

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// PollerOptions configures a Poller.
type PollerOptions struct {
	Source   Source
	Interval time.Duration
	Window   time.Duration
	Location *time.Location
	Clock    Clock
	Logger   *logging.Logger
}

// Poller runs Check immediately and then once per Interval.
type Poller struct {
	source   Source
	interval time.Duration
	window   time.Duration
	loc      *time.Location
	clock    Clock
	logger   *logging.Logger
	seq      atomic.Uint64
}

// NewPoller constructs a Poller, filling unset options with defaults.
func NewPoller(opts PollerOptions) *Poller {
	p := &Poller{
		source:   opts.Source,
		interval: opts.Interval,
		window:   opts.Window,
		loc:      opts.Location,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.window <= 0 {
		p.window = DefaultWindow
	}
	if p.clock == nil {
		p.clock = SystemClock{}
	}
	return p
}

// Run ticks until ctx is cancelled, calling apply with each successful
// observation. Ticks run concurrently with one another; each is tagged with a
// sequence number taken when it starts so that callers can discard
// completions that arrive out of order. Failed ticks are logged and dropped.
// Run returns once every started tick has finished.
func (p *Poller) Run(ctx context.Context, apply func(Observation)) {
	var wg sync.WaitGroup
	defer wg.Wait()

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	launch := func() {
		seq := p.seq.Add(1)
		requestedAt := p.clock.Now()
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.tick(ctx, seq, requestedAt, apply)
		}()
	}

	launch()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			launch()
		}
	}
}

func (p *Poller) tick(ctx context.Context, seq uint64, requestedAt time.Time, apply func(Observation)) {
	obs, err := Check(ctx, p.source, p.clock.Now, p.window, p.loc)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("livestream", "livestream check failed", map[string]any{
				"seq":   seq,
				"error": err.Error(),
			})
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	obs.Seq = seq
	obs.RequestedAt = requestedAt
	if apply != nil {
		apply(obs)
	}
}

// Seq returns the tag of the most recently started tick.
func (p *Poller) Seq() uint64 {
	return p.seq.Load()
}
