// Package wiki fetches page summaries from the Wikipedia REST API.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the English Wikipedia REST endpoint.
const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

// Image is a summary image reference.
type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Summary is the subset of a page summary used to enrich records.
type Summary struct {
	Title         string `json:"title"`
	Extract       string `json:"extract"`
	Thumbnail     *Image `json:"thumbnail,omitempty"`
	OriginalImage *Image `json:"originalimage,omitempty"`
}

// ImageURL prefers the original image over the thumbnail.
func (s *Summary) ImageURL() string {
	if s == nil {
		return ""
	}
	if s.OriginalImage != nil && s.OriginalImage.Source != "" {
		return s.OriginalImage.Source
	}
	if s.Thumbnail != nil {
		return s.Thumbnail.Source
	}
	return ""
}

// Client calls the summary endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
}

// Summary returns the summary of the page titled title, or nil when no such page exists.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	endpoint := c.baseURL + "/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summary request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("summary request failed: %s: %s", res.Status, strings.TrimSpace(string(body)))
	}

	var s Summary
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &s, nil
}
