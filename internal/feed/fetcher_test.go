package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/newsroom/internal/feed"
)

const oneArticle = `[{"headline":"A","url":"https://x.example/a","date":"2025-01-01"}]`

func TestFetcher_APIKeyHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(oneArticle))
	}))
	t.Cleanup(srv.Close)

	src := feed.Source{Name: "Wire", URL: srv.URL, Format: feed.FormatJSON, APIKey: "secret", APIKeyHeader: "X-Api-Key"}
	articles, err := feed.NewFetcher(src, srv.Client(), feed.DefaultRegistry()).Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Wire", articles[0].Source)
}

func TestFetcher_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	src := feed.Source{Name: "Wire", URL: srv.URL, Format: feed.FormatJSON}
	_, err := feed.NewFetcher(src, srv.Client(), feed.DefaultRegistry()).Fetch(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetcher_OAuth2ClientCredentials(t *testing.T) {
	t.Parallel()

	var tokenRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/articles", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(oneArticle))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	src := feed.Source{
		Name:   "Partner",
		URL:    srv.URL + "/articles",
		Format: feed.FormatJSON,
		OAuth2: &feed.OAuth2Credentials{
			ClientID:     "newsroom",
			ClientSecret: "shh",
			TokenURL:     srv.URL + "/oauth/token",
		},
	}
	f := feed.NewFetcher(src, srv.Client(), feed.DefaultRegistry())

	for range 2 {
		articles, err := f.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, articles, 1)
	}
	assert.Equal(t, int32(1), tokenRequests.Load(), "token is reused until it expires")
}
