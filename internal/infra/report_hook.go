package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SessionReportEvent is delivered to the report renderer whenever a session
// changes state. The renderer resolves the full record by session id.
type SessionReportEvent struct {
	SessionID    int64  `json:"session_id"`
	RegisterCode string `json:"register_code"`
	Event        string `json:"event"` // opened | closed | cancelled
	OccurredAt   string `json:"occurred_at"`
}

// ReportHookClient POSTs report events to the renderer.
type ReportHookClient struct {
	url        string
	httpClient *http.Client
}

func NewReportHookClient(url string) *ReportHookClient {
	return &ReportHookClient{url: url, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// Enabled is false when no hook URL is configured.
func (c *ReportHookClient) Enabled() bool { return c != nil && c.url != "" }

func (c *ReportHookClient) Deliver(ctx context.Context, ev SessionReportEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("report hook: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("report hook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("report hook: unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("report hook: returned %d", resp.StatusCode)
	}
	return nil
}
