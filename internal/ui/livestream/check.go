package livestream

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

// DefaultWindow is how far ahead an upcoming broadcast is announced.
const DefaultWindow = 30 * time.Minute

// Kind classifies the outcome of one tick.
type Kind int

const (
	// KindNone means nothing qualified this tick.
	KindNone Kind = iota
	// KindActive means a broadcast is in progress.
	KindActive
	// KindUpcoming means a broadcast starts within the window.
	KindUpcoming
)

func (k Kind) String() string {
	switch k {
	case KindActive:
		return "active"
	case KindUpcoming:
		return "upcoming"
	default:
		return "none"
	}
}

// Observation is the result of one tick, tagged with the tick's sequence
// number and the time its requests were issued.
type Observation struct {
	Seq         uint64           `json:"seq"`
	RequestedAt time.Time        `json:"requested_at"`
	Kind        Kind             `json:"kind"`
	Broadcast   *model.Broadcast `json:"broadcast,omitempty"`
}

// Check runs one tick against src. The active query is awaited before the
// upcoming query is issued; a qualifying active broadcast ends the tick.
// Any request failure aborts the tick with an error and no observation.
func Check(ctx context.Context, src Source, now func() time.Time, window time.Duration, loc *time.Location) (Observation, error) {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = DefaultWindow
	}

	active, err := src.Active(ctx)
	if err != nil {
		return Observation{}, fmt.Errorf("active broadcast: %w", err)
	}
	if active.Success && active.Data != nil {
		b := *active.Data
		return Observation{Kind: KindActive, Broadcast: &b}, nil
	}

	upcoming, err := src.Upcoming(ctx)
	if err != nil {
		return Observation{}, fmt.Errorf("upcoming broadcasts: %w", err)
	}
	if !upcoming.Success || len(upcoming.Data) == 0 {
		return Observation{Kind: KindNone}, nil
	}

	next := upcoming.Data[0]
	scheduled, ok := ParseTimestamp(next.ScheduledAt, loc)
	if !ok {
		return Observation{Kind: KindNone}, nil
	}
	if InWindow(MinutesUntil(scheduled, now()), window) {
		return Observation{Kind: KindUpcoming, Broadcast: &next}, nil
	}
	return Observation{Kind: KindNone}, nil
}

// MinutesUntil returns whole minutes from now until t, rounded down.
func MinutesUntil(t, now time.Time) int64 {
	return int64(math.Floor(float64(t.Sub(now)) / float64(time.Minute)))
}

// InWindow reports whether minutes falls in (0, window].
func InWindow(minutes int64, window time.Duration) bool {
	return minutes > 0 && minutes <= int64(window/time.Minute)
}
