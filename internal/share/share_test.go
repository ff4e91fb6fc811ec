package share_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/newsroom/internal/domain"
	"github.com/gosuda/newsroom/internal/share"
)

var item = share.Item{ //nolint:gochecknoglobals // shared fixture
	Article: domain.Article{
		Headline: "Rates <held> & steady",
		Summary:  "Third pause in a row.",
		Source:   "Daily Ledger",
		URL:      "https://ledger.example/rates",
	},
	Note:     "worth a read",
	SharedBy: "Sam",
	Analysis: "Markets had priced it in.",
}

// --- mocks ---

type mockSharer struct {
	platform  string
	shareFunc func(ctx context.Context, item share.Item) (share.Receipt, error)
}

func (m *mockSharer) Platform() string { return m.platform }

func (m *mockSharer) Share(ctx context.Context, it share.Item) (share.Receipt, error) {
	return m.shareFunc(ctx, it)
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry_Share(t *testing.T) {
	t.Parallel()

	t.Run("no platforms configured", func(t *testing.T) {
		t.Parallel()

		_, err := share.NewRegistry().Share(context.Background(), "slack", item)
		require.ErrorIs(t, err, share.ErrNoPlatforms)
	})

	t.Run("unknown platform", func(t *testing.T) {
		t.Parallel()

		reg := share.NewRegistry()
		for _, l := range share.LinkSharers() {
			reg.Register(l)
		}

		_, err := reg.Share(context.Background(), "myspace", item)
		require.ErrorIs(t, err, share.ErrPlatformNotFound)
	})

	t.Run("delegates and wraps errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		reg := share.NewRegistry()
		reg.Register(&mockSharer{platform: "ok", shareFunc: func(_ context.Context, it share.Item) (share.Receipt, error) {
			assert.Equal(t, item.Article.URL, it.Article.URL)
			return share.Receipt{Platform: "ok", Delivered: true}, nil
		}})
		reg.Register(&mockSharer{platform: "bad", shareFunc: func(context.Context, share.Item) (share.Receipt, error) {
			return share.Receipt{}, boom
		}})

		receipt, err := reg.Share(context.Background(), "ok", item)
		require.NoError(t, err)
		assert.True(t, receipt.Delivered)

		_, err = reg.Share(context.Background(), "bad", item)
		require.ErrorIs(t, err, boom)

		assert.Equal(t, []string{"bad", "ok"}, reg.Available())
	})
}

// ---------------------------------------------------------------------------
// Slack
// ---------------------------------------------------------------------------

func TestSlackSharer(t *testing.T) {
	t.Parallel()

	t.Run("posts block message", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &got))
			_, _ = w.Write([]byte("ok"))
		}))
		t.Cleanup(srv.Close)

		s := share.NewSlackSharer(srv.URL, srv.Client())
		receipt, err := s.Share(context.Background(), item)

		require.NoError(t, err)
		assert.Equal(t, share.Receipt{Platform: "slack", Delivered: true}, receipt)
		assert.Equal(t, "Rates <held> & steady https://ledger.example/rates", got["text"])
		blocks, ok := got["blocks"].([]any)
		require.True(t, ok, "blocks present")
		assert.Len(t, blocks, 2)
	})

	t.Run("webhook failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "invalid_token", http.StatusForbidden)
		}))
		t.Cleanup(srv.Close)

		_, err := share.NewSlackSharer(srv.URL, srv.Client()).Share(context.Background(), item)
		require.Error(t, err)
	})
}

func TestBuildArticleBlocks(t *testing.T) {
	t.Parallel()

	t.Run("full item", func(t *testing.T) {
		t.Parallel()

		blocks := share.BuildArticleBlocks(item)
		require.Len(t, blocks, 2)

		raw, err := json.Marshal(blocks[0])
		require.NoError(t, err)
		assert.Contains(t, string(raw), "\\u003chttps://ledger.example/rates|Rates \\u0026lt;held\\u0026gt; \\u0026amp; steady\\u003e")
		assert.Contains(t, string(raw), "Daily Ledger")

		raw, err = json.Marshal(blocks[1])
		require.NoError(t, err)
		assert.Contains(t, string(raw), "Markets had priced it in.")
		assert.Contains(t, string(raw), "Sam: worth a read")
	})

	t.Run("bare article", func(t *testing.T) {
		t.Parallel()

		blocks := share.BuildArticleBlocks(share.Item{Article: domain.Article{Headline: "H", URL: "https://x.example"}})
		assert.Len(t, blocks, 1)
	})
}

// ---------------------------------------------------------------------------
// Links
// ---------------------------------------------------------------------------

func TestLinkSharers(t *testing.T) {
	t.Parallel()

	reg := share.NewRegistry()
	for _, l := range share.LinkSharers() {
		reg.Register(l)
	}
	assert.Equal(t, []string{"email", "linkedin", "x"}, reg.Available())

	t.Run("x", func(t *testing.T) {
		t.Parallel()

		r, err := reg.Share(context.Background(), share.PlatformX, item)
		require.NoError(t, err)
		assert.False(t, r.Delivered)

		u, err := url.Parse(r.URL)
		require.NoError(t, err)
		assert.Equal(t, "twitter.com", u.Host)
		assert.Equal(t, item.Article.Headline, u.Query().Get("text"))
		assert.Equal(t, item.Article.URL, u.Query().Get("url"))
	})

	t.Run("linkedin", func(t *testing.T) {
		t.Parallel()

		r, err := reg.Share(context.Background(), share.PlatformLinkedIn, item)
		require.NoError(t, err)
		assert.Contains(t, r.URL, url.QueryEscape(item.Article.URL))
	})

	t.Run("email", func(t *testing.T) {
		t.Parallel()

		r, err := reg.Share(context.Background(), share.PlatformEmail, item)
		require.NoError(t, err)
		assert.NotContains(t, r.URL, "+")

		u, err := url.Parse(r.URL)
		require.NoError(t, err)
		assert.Equal(t, "mailto", u.Scheme)
		assert.Equal(t, item.Article.Headline, u.Query().Get("subject"))
		assert.Equal(t, "worth a read\n\nThird pause in a row.\n\nhttps://ledger.example/rates", u.Query().Get("body"))
	})
}
