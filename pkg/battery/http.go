package battery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lumenlabs/go-lumen/internal/httpc"
)

// HTTPMonitor queries the companion daemon's power endpoint. Used on
// hardware revisions where the battery gauge hangs off the daemon rather
// than the kernel.
type HTTPMonitor struct {
	url    string
	client *http.Client
}

// NewHTTP creates a monitor against the daemon base URL
// (e.g. "http://127.0.0.1:9090").
func NewHTTP(baseURL string) *HTTPMonitor {
	return &HTTPMonitor{
		url:    baseURL + "/api/power",
		client: httpc.Client,
	}
}

// Level fetches the battery percentage from the daemon.
func (m *HTTPMonitor) Level(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return 0, fmt.Errorf("battery: build request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("battery: query daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("battery: daemon returned %d", resp.StatusCode)
	}

	var payload struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("battery: decode response: %w", err)
	}

	level := payload.Level
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return level, nil
}

// Verify HTTPMonitor implements Monitor at compile time.
var _ Monitor = (*HTTPMonitor)(nil)
