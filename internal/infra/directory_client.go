package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const directoryKeyPrefix = "directory:operator:"

// DirectoryClient resolves operator display names from the identity
// directory, caching hits in Redis. Lookups never fail: any error yields
// "operator #<id>".
type DirectoryClient struct {
	baseURL    string
	httpClient *http.Client
	rdb        *redis.Client
	ttl        time.Duration
}

// NewDirectoryClient builds a client. rdb may be nil to disable caching and
// an empty baseURL always returns the fallback name.
func NewDirectoryClient(baseURL string, rdb *redis.Client, ttl time.Duration) *DirectoryClient {
	return &DirectoryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 3 * time.Second},
		rdb:        rdb,
		ttl:        ttl,
	}
}

func (c *DirectoryClient) DisplayName(ctx context.Context, operatorID int64) string {
	if c.baseURL == "" {
		return fallbackName(operatorID)
	}
	key := directoryKeyPrefix + strconv.FormatInt(operatorID, 10)

	if c.rdb != nil {
		name, err := c.rdb.Get(ctx, key).Result()
		if err == nil && name != "" {
			return name
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Int64("operator_id", operatorID).Msg("directory cache read failed")
		}
	}

	name, err := c.lookup(ctx, operatorID)
	if err != nil {
		log.Warn().Err(err).Int64("operator_id", operatorID).Msg("directory lookup failed")
		return fallbackName(operatorID)
	}
	if c.rdb != nil && c.ttl > 0 {
		if err := c.rdb.Set(ctx, key, name, c.ttl).Err(); err != nil {
			log.Debug().Err(err).Int64("operator_id", operatorID).Msg("directory cache write failed")
		}
	}
	return name
}

func (c *DirectoryClient) lookup(ctx context.Context, operatorID int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/operators/"+strconv.FormatInt(operatorID, 10), nil)
	if err != nil {
		return "", fmt.Errorf("directory: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("directory: unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("directory: returned %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("directory: decode response: %w", err)
	}
	name := strings.TrimSpace(body.DisplayName)
	if name == "" {
		return "", errors.New("directory: empty display name")
	}
	return name, nil
}

func fallbackName(operatorID int64) string {
	return fmt.Sprintf("operator #%d", operatorID)
}
