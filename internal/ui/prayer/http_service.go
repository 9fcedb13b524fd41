package prayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

// PrayersPath is the backend endpoint for new prayer requests.
const PrayersPath = "/api/prayers"

// HTTPService posts prayer requests to the shrine backend.
type HTTPService struct {
	base   string
	client *http.Client
}

// NewHTTPService constructs an HTTPService for the API at baseURL.
func NewHTTPService(baseURL string, client *http.Client) *HTTPService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPService{
		base:   strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		client: client,
	}
}

// CreatePrayer sends req. Non-2xx replies and {"success": false} are failures.
func (s *HTTPService) CreatePrayer(ctx context.Context, req model.PrayerRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode prayer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+PrayersPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post prayer request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("prayer service: %s", msg)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var reply model.PrayerResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		// A 2xx reply without a JSON envelope still counts as accepted.
		return nil
	}
	if reply.Success != nil && !*reply.Success {
		if reply.Message != "" {
			return fmt.Errorf("%w: %s", ErrRejected, reply.Message)
		}
		return ErrRejected
	}
	return nil
}
