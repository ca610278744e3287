// Package qpx is a minimal client for the QPX Express trip search endpoint.
// It only speaks the wire format; turning responses into offers is the
// normalizer's job.
package qpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lipanski/flycheap/internal/domain"
)

// DefaultSearchURL is the production search endpoint.
const DefaultSearchURL = "https://www.googleapis.com/qpxExpress/v1/trips/search"

// maxErrorBody caps how much of a non-200 body is kept on an UpstreamError.
const maxErrorBody = 4 << 10

// Client sends search requests to the QPX Express API.
type Client struct {
	apiKey     string
	searchURL  string
	httpClient *http.Client
}

// NewClient constructs a Client. An empty searchURL falls back to DefaultSearchURL.
func NewClient(apiKey, searchURL string, timeout time.Duration) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Client{
		apiKey:     apiKey,
		searchURL:  searchURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search POSTs one request and decodes the 200 response.
// Transport failures wrap domain.ErrNetwork; any other status is returned as
// a *domain.UpstreamError.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (SearchResponse, error) {
	body, err := json.Marshal(newSearchBody(req))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("qpx.Client.Search: encode: %w", err)
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return SearchResponse{}, fmt.Errorf("qpx.Client.Search: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("qpx.Client.Search: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Close = true

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("qpx.Client.Search: %w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return SearchResponse{}, fmt.Errorf("qpx.Client.Search: %w",
			&domain.UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)})
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("qpx.Client.Search: read body: %w: %w", domain.ErrNetwork, err)
	}

	var out SearchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return SearchResponse{}, fmt.Errorf("qpx.Client.Search: decode: %w", err)
	}
	return out, nil
}

// endpoint appends the API key as the "key" query parameter.
func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
