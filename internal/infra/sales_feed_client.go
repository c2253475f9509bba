package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// expectedTotalResponse is the sales system's answer for one session.
type expectedTotalResponse struct {
	SessionID     int64           `json:"session_id"`
	ExpectedTotal decimal.Decimal `json:"expected_total"`
}

// SalesFeedClient asks the external sales system how much a session should
// hold. Every call goes through the breaker, so a dead feed fails fast.
type SalesFeedClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewSalesFeedClient(baseURL string, timeout time.Duration, breaker *CircuitBreaker) *SalesFeedClient {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultCBConfig("sales_feed"))
	}
	return &SalesFeedClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// Breaker exposes the breaker for the health endpoint.
func (c *SalesFeedClient) Breaker() *CircuitBreaker { return c.breaker }

// GetExpectedTotal fetches GET {base}/sessions/{id}/expected-total.
func (c *SalesFeedClient) GetExpectedTotal(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	var out expectedTotalResponse
	err := c.breaker.Execute(func() error {
		return c.fetch(ctx, sessionID, &out)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.ExpectedTotal, nil
}

func (c *SalesFeedClient) fetch(ctx context.Context, sessionID int64, out *expectedTotalResponse) error {
	url := c.baseURL + "/sessions/" + strconv.FormatInt(sessionID, 10) + "/expected-total"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("sales feed: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sales feed: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sales feed: returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sales feed: decode response: %w", err)
	}
	if out.SessionID != 0 && out.SessionID != sessionID {
		return fmt.Errorf("sales feed: answered for session %d, asked for %d", out.SessionID, sessionID)
	}
	return nil
}
