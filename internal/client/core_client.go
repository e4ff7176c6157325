package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/echoroom/api/internal/config"
)

// PostUpdater applies single-field updates to post records owned by the
// core service
type PostUpdater interface {
	SetWaveformURL(ctx context.Context, postID int64, url string) error
}

// CoreClient implements PostUpdater against the core service's internal API
type CoreClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewCoreClient creates a new core service client
func NewCoreClient(cfg *config.CoreConfig) *CoreClient {
	return &CoreClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
	}
}

// SetWaveformURL writes the waveform image URL onto a post record. No other
// post fields are touched.
func (c *CoreClient) SetWaveformURL(ctx context.Context, postID int64, url string) error {
	body := map[string]string{"waveformUrl": url}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/internal/posts/%d/waveform", c.baseURL, postID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("core service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *CoreClient) IsConfigured() bool {
	return c.baseURL != ""
}
