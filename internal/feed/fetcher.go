package feed

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gosuda/newsroom/internal/domain"
)

const maxFeedBody = 8 << 20

// HTTPClient returns a pooled client for publisher requests.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Fetcher downloads and parses one source.
type Fetcher struct {
	source   Source
	client   *http.Client
	registry *Registry
}

// NewFetcher builds a fetcher for src. Sources with OAuth2 credentials get a
// client that obtains and refreshes a client-credentials token through base.
func NewFetcher(src Source, base *http.Client, registry *Registry) *Fetcher {
	if base == nil {
		base = HTTPClient(0)
	}

	client := base
	if src.OAuth2 != nil {
		cc := clientcredentials.Config{
			ClientID:     src.OAuth2.ClientID,
			ClientSecret: src.OAuth2.ClientSecret,
			TokenURL:     src.OAuth2.TokenURL,
			Scopes:       src.OAuth2.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = cc.Client(ctx)
		client.Timeout = base.Timeout
	}

	return &Fetcher{source: src, client: client, registry: registry}
}

// Source returns the source this fetcher reads.
func (f *Fetcher) Source() Source {
	return f.source
}

// Fetch downloads the source and parses it into articles.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed.Fetcher.Fetch(%s): build request: %w", f.source.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "newsroom/1.0")
	if f.source.APIKey != "" {
		req.Header.Set(f.source.APIKeyHeader, f.source.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed.Fetcher.Fetch(%s): %w", f.source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("feed.Fetcher.Fetch(%s): unexpected status %d", f.source.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("feed.Fetcher.Fetch(%s): read body: %w", f.source.Name, err)
	}

	articles, err := f.registry.Parse(body, f.source)
	if err != nil {
		return nil, fmt.Errorf("feed.Fetcher.Fetch(%s): %w", f.source.Name, err)
	}

	return articles, nil
}
