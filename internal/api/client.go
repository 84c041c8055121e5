// Package api is the client for the drawing service: submission, drawing
// lookup and the recent-drawings listing.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/san-kum/epicycle/internal/epicycle"
)

const DefaultBaseURL = "http://localhost:8081"

// Service is the subset of the drawing service the client depends on.
type Service interface {
	Create(ctx context.Context, points epicycle.Stroke, maxVectors int) (int, error)
	Get(ctx context.Context, id int) (*Response, error)
	ListRecent(ctx context.Context) ([]Summary, error)
}

// Response is one drawing lookup. Raw keeps the body for change detection.
type Response struct {
	ID          int                  `json:"id"`
	Points      epicycle.Stroke      `json:"points"`
	DrawVectors epicycle.DrawVectors `json:"drawVectors"`
	Raw         []byte               `json:"-"`
}

// Drawing converts the response into the domain type.
func (r *Response) Drawing() *epicycle.Drawing {
	return &epicycle.Drawing{
		ID:      r.ID,
		Stroke:  r.Points,
		Vectors: r.DrawVectors.Vectors.Sorted(),
	}
}

// Summary is one entry of the recent drawings listing.
type Summary struct {
	ID      int    `json:"id"`
	SvgPath string `json:"svgPath,omitempty"`
}

type createRequest struct {
	Points     epicycle.Stroke `json:"points"`
	MaxVectors int             `json:"maxVectors"`
}

type createResponse struct {
	ID int `json:"id"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "api"),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Create submits points and returns the new drawing id.
func (c *Client) Create(ctx context.Context, points epicycle.Stroke, maxVectors int) (int, error) {
	body, err := json.Marshal(createRequest{Points: points, MaxVectors: maxVectors})
	if err != nil {
		return 0, epicycle.IOFailure("create", 0, fmt.Errorf("marshal request: %w", err))
	}

	data, err := c.do(ctx, http.MethodPost, "/drawing", bytes.NewReader(body))
	if err != nil {
		return 0, epicycle.IOFailure("create", 0, err)
	}

	var resp createResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, epicycle.IOFailure("create", 0, fmt.Errorf("decode response: %w", err))
	}
	c.log.Info("drawing submitted", "id", resp.ID, "points", len(points), "max_vectors", maxVectors)
	return resp.ID, nil
}

// Get fetches the current state of a drawing.
func (c *Client) Get(ctx context.Context, id int) (*Response, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/drawing/%d", id), nil)
	if err != nil {
		return nil, epicycle.IOFailure("get", id, err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, epicycle.IOFailure("get", id, fmt.Errorf("decode response: %w", err))
	}
	resp.Raw = data
	c.log.Debug("drawing fetched", "id", id, "vectors", len(resp.DrawVectors.Vectors), "bytes", len(data))
	return &resp, nil
}

// ListRecent returns the service's recent drawings.
func (c *Client) ListRecent(ctx context.Context) ([]Summary, error) {
	data, err := c.do(ctx, http.MethodGet, "/drawings/recent", nil)
	if err != nil {
		return nil, epicycle.IOFailure("list", 0, err)
	}

	var out []Summary
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, epicycle.IOFailure("list", 0, fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return data, nil
}
