package livestream

import (
	"context"
	"sync"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/layout"
	"github.com/Its-donkey/shrine-live/logging"
)

// WidgetOptions configures one mount of the notification.
type WidgetOptions struct {
	Source       Source
	Layout       *layout.Channel
	Interval     time.Duration
	Window       time.Duration
	Location     *time.Location
	ClearOnLapse bool
	Clock        Clock
	Logger       *logging.Logger
	// OnChange is called with a copy of the state after every change that
	// affects rendering. It runs outside the widget's lock.
	OnChange func(Visibility)
}

// Widget owns the notification state for a mount: its poller, its layout
// subscription and its dismissal. A widget can be mounted again after
// Unmount; every mount starts from an empty state.
type Widget struct {
	opts WidgetOptions

	mu      sync.Mutex
	state   Visibility
	mounted bool
	gen     uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWidget returns an unmounted widget.
func NewWidget(opts WidgetOptions) *Widget {
	return &Widget{opts: opts}
}

// Mount starts polling and layout observation with a fresh state. Mounting
// an already mounted widget is a no-op.
func (w *Widget) Mount(ctx context.Context) {
	w.mu.Lock()
	if w.mounted {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.mounted = true
	w.cancel = cancel
	w.gen++
	gen := w.gen
	w.state = Visibility{}

	var updates <-chan bool
	var unsubscribe func()
	if w.opts.Layout != nil {
		updates, unsubscribe = w.opts.Layout.Subscribe()
		w.state.MobileMenuOpen = w.opts.Layout.Open()
	}
	w.mu.Unlock()

	poller := NewPoller(PollerOptions{
		Source:   w.opts.Source,
		Interval: w.opts.Interval,
		Window:   w.opts.Window,
		Location: w.opts.Location,
		Clock:    w.opts.Clock,
		Logger:   w.opts.Logger,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		poller.Run(ctx, func(obs Observation) {
			w.update(gen, func(v *Visibility) bool { return v.Apply(obs, w.opts.ClearOnLapse) })
		})
	}()

	if updates != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case open, ok := <-updates:
					if !ok {
						return
					}
					w.update(gen, func(v *Visibility) bool { return v.SetMobileMenuOpen(open) })
				}
			}
		}()
	}
}

// Unmount stops polling and layout observation. Completions that arrive
// afterwards are ignored. It does not wait; use Wait for that.
func (w *Widget) Unmount() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.mounted {
		return
	}
	w.mounted = false
	w.cancel()
}

// Wait blocks until the goroutines started by Mount have exited.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// Dismiss hides the notification for the rest of this mount.
func (w *Widget) Dismiss() {
	w.mu.Lock()
	gen := w.gen
	w.mu.Unlock()
	w.update(gen, func(v *Visibility) bool { return v.Dismiss() })
}

// Snapshot returns a copy of the current state.
func (w *Widget) Snapshot() Visibility {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// View returns the render decision for the current state.
func (w *Widget) View() *NotificationView {
	return w.Snapshot().View()
}

// update applies fn when gen is still the live mount. Completions from an
// earlier mount are dropped.
func (w *Widget) update(gen uint64, fn func(*Visibility) bool) {
	w.mu.Lock()
	if !w.mounted || w.gen != gen {
		w.mu.Unlock()
		return
	}
	changed := fn(&w.state)
	snapshot := w.state
	w.mu.Unlock()

	if changed && w.opts.OnChange != nil {
		w.opts.OnChange(snapshot)
	}
}
