package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 512

// ArticleRequest is the body POSTed to the analysis service.
type ArticleRequest struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Date     string `json:"date"`
	URL      string `json:"url"`
	Content  string `json:"content"`
}

// HTTPError is returned when the analysis service answers with a non-2xx
// status. No frames are read in that case.
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("analysis service returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("analysis service returned HTTP %d: %s", e.Code, e.Body)
}

// Streamer opens an analysis event stream for one article.
// *Client satisfies this interface.
type Streamer interface {
	Open(ctx context.Context, req ArticleRequest) (io.ReadCloser, error)
}

// Client talks to the external analysis service. Each Client is independent;
// there is no shared package-level client.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a Client for the analysis endpoint. httpClient may be nil,
// in which case a streaming-friendly client is built.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = StreamingHTTPClient(30 * time.Second)
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     httpClient,
	}
}

// StreamingHTTPClient returns a pooled HTTP client suitable for long-lived
// event streams. There is no overall request timeout; headerTimeout bounds
// the wait for the response headers only.
func StreamingHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// Open POSTs req and returns the streaming response body. The caller must
// close it. Cancelling ctx aborts the request and any pending body read.
func (c *Client) Open(ctx context.Context, req ArticleRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("analysis.Client.Open: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("analysis.Client.Open: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis.Client.Open: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &HTTPError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return resp.Body, nil
}
