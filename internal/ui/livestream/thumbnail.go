package livestream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Its-donkey/shrine-live/logging"
)

// ThumbnailResolver fills in missing thumbnails by reading the preview image
// advertised by the stream page.
type ThumbnailResolver struct {
	client *http.Client
	logger *logging.Logger

	mu    sync.Mutex
	cache map[int64]string
}

// NewThumbnailResolver constructs a resolver. A nil client gets a 10s timeout.
func NewThumbnailResolver(client *http.Client, logger *logging.Logger) *ThumbnailResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ThumbnailResolver{client: client, logger: logger, cache: make(map[int64]string)}
}

// Enrich sets obs.Broadcast.ThumbnailURL when it is empty and the stream page
// exposes one. Lookups are cached per broadcast id, including misses.
func (r *ThumbnailResolver) Enrich(ctx context.Context, obs Observation) Observation {
	if obs.Broadcast == nil || obs.Broadcast.ThumbnailURL != "" || strings.TrimSpace(obs.Broadcast.StreamURL) == "" {
		return obs
	}
	b := *obs.Broadcast
	obs.Broadcast = &b

	r.mu.Lock()
	cached, ok := r.cache[b.ID]
	r.mu.Unlock()
	if ok {
		b.ThumbnailURL = cached
		return obs
	}

	thumb, err := r.lookup(ctx, b.StreamURL)
	if err != nil {
		r.logger.Warn("livestream", "thumbnail lookup failed", map[string]any{
			"broadcast_id": b.ID,
			"error":        err.Error(),
		})
		if ctx.Err() != nil {
			return obs
		}
	}
	r.mu.Lock()
	r.cache[b.ID] = thumb
	r.mu.Unlock()
	b.ThumbnailURL = thumb
	return obs
}

func (r *ThumbnailResolver) lookup(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch stream page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", fmt.Errorf("parse stream page: %w", err)
	}

	for _, selector := range []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
	} {
		if content, ok := doc.Find(selector).Attr("content"); ok && strings.TrimSpace(content) != "" {
			return absolute(pageURL, strings.TrimSpace(content)), nil
		}
	}
	return "", nil
}

func absolute(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
