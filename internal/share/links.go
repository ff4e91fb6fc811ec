package share

import (
	"context"
	"net/url"
	"strings"
)

// LinkSharer produces a share-intent URL that the user opens in their browser.
// Nothing is sent server-side.
type LinkSharer struct {
	platform string
	build    func(item Item) string
}

// Link platforms.
const (
	PlatformX        = "x"
	PlatformLinkedIn = "linkedin"
	PlatformEmail    = "email"
)

// LinkSharers returns the built-in intent sharers.
func LinkSharers() []*LinkSharer {
	return []*LinkSharer{
		{platform: PlatformX, build: func(it Item) string {
			q := url.Values{"text": {it.Article.Headline}, "url": {it.Article.URL}}
			return "https://twitter.com/intent/tweet?" + q.Encode()
		}},
		{platform: PlatformLinkedIn, build: func(it Item) string {
			q := url.Values{"url": {it.Article.URL}}
			return "https://www.linkedin.com/sharing/share-offsite/?" + q.Encode()
		}},
		{platform: PlatformEmail, build: func(it Item) string {
			body := it.Article.URL
			if it.Article.Summary != "" {
				body = it.Article.Summary + "\n\n" + body
			}
			if it.Note != "" {
				body = it.Note + "\n\n" + body
			}
			q := url.Values{"subject": {it.Article.Headline}, "body": {body}}
			// mailto expects %20 rather than '+' for spaces.
			return "mailto:?" + strings.ReplaceAll(q.Encode(), "+", "%20")
		}},
	}
}

func (l *LinkSharer) Platform() string { return l.platform }

func (l *LinkSharer) Share(_ context.Context, item Item) (Receipt, error) {
	return Receipt{Platform: l.platform, URL: l.build(item)}, nil
}
