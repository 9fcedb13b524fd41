// Package livestream decides when the shrine's livestream notification is shown
// and which broadcast it concerns.
package livestream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

// Backend paths for the two read operations.
const (
	ActivePath   = "/api/livestreams/active"
	UpcomingPath = "/api/livestreams/upcoming"
)

// ErrUnsuccessful reports a non-2xx reply from the livestream API.
var ErrUnsuccessful = errors.New("livestream: backend request failed")

// Source is the livestream query service.
type Source interface {
	Active(ctx context.Context) (model.ActiveResponse, error)
	Upcoming(ctx context.Context) (model.UpcomingResponse, error)
}

// HTTPSourceOptions configures an HTTPSource.
type HTTPSourceOptions struct {
	// BaseURL of the API. Empty means same-origin relative paths, which is
	// what the browser build uses.
	BaseURL string
	Client  *http.Client
	// Limiter bounds outbound requests. Nil disables bounding.
	Limiter *rate.Limiter
}

// HTTPSource reads broadcasts from the shrine backend over HTTP.
type HTTPSource struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPSource constructs an HTTPSource.
func NewHTTPSource(opts HTTPSourceOptions) *HTTPSource {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{
		base:    strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/"),
		client:  client,
		limiter: opts.Limiter,
	}
}

// NewLimiter returns a limiter allowing rps requests per second with the given burst.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Active fetches the broadcast currently in progress, if any.
func (s *HTTPSource) Active(ctx context.Context) (model.ActiveResponse, error) {
	var out model.ActiveResponse
	err := s.get(ctx, ActivePath, &out)
	return out, err
}

// Upcoming fetches scheduled broadcasts, soonest first.
func (s *HTTPSource) Upcoming(ctx context.Context) (model.UpcomingResponse, error) {
	var out model.UpcomingResponse
	err := s.get(ctx, UpcomingPath, &out)
	return out, err
}

func (s *HTTPSource) get(ctx context.Context, path string, into any) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for %s: %w", path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch %s: %w (%s)", path, ErrUnsuccessful, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
