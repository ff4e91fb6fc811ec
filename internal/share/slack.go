package share

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	slacklib "github.com/slack-go/slack"
)

const PlatformSlack = "slack"

// SlackSharer posts to a Slack incoming webhook.
type SlackSharer struct {
	webhookURL string
	client     *http.Client
}

// Compile-time interface check.
var _ Sharer = (*SlackSharer)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackSharer creates a SlackSharer. A nil client uses http.DefaultClient.
func NewSlackSharer(webhookURL string, client *http.Client) *SlackSharer {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackSharer{webhookURL: webhookURL, client: client}
}

func (s *SlackSharer) Platform() string { return PlatformSlack }

// Share posts the article as a Block Kit message.
func (s *SlackSharer) Share(ctx context.Context, item Item) (Receipt, error) {
	msg := &slacklib.WebhookMessage{
		Text:   fallbackText(item),
		Blocks: &slacklib.Blocks{BlockSet: BuildArticleBlocks(item)},
	}

	if err := slacklib.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return Receipt{}, fmt.Errorf("share.SlackSharer.Share: %w", err)
	}

	return Receipt{Platform: PlatformSlack, Delivered: true}, nil
}

// BuildArticleBlocks builds Slack Block Kit blocks for a shared article: a
// linked headline with source, the summary, and optional analysis and note
// context lines.
func BuildArticleBlocks(item Item) []slacklib.Block {
	a := item.Article

	var b strings.Builder
	fmt.Fprintf(&b, "*<%s|%s>*", a.URL, escapeMrkdwn(a.Headline))
	if a.Source != "" {
		fmt.Fprintf(&b, "\n_%s_", escapeMrkdwn(a.Source))
	}
	if a.Summary != "" {
		fmt.Fprintf(&b, "\n%s", escapeMrkdwn(a.Summary))
	}

	var accessory *slacklib.Accessory
	if a.ImageURL != "" {
		accessory = slacklib.NewAccessory(slacklib.NewImageBlockElement(a.ImageURL, a.Headline))
	}

	blocks := []slacklib.Block{
		slacklib.NewSectionBlock(
			slacklib.NewTextBlockObject(slacklib.MarkdownType, b.String(), false, false),
			nil,
			accessory,
		),
	}

	var ctxElems []slacklib.MixedElement
	if item.Analysis != "" {
		ctxElems = append(ctxElems, slacklib.NewTextBlockObject(slacklib.MarkdownType, "*Analysis:* "+escapeMrkdwn(item.Analysis), false, false))
	}
	if item.Note != "" {
		note := escapeMrkdwn(item.Note)
		if item.SharedBy != "" {
			note = escapeMrkdwn(item.SharedBy) + ": " + note
		}
		ctxElems = append(ctxElems, slacklib.NewTextBlockObject(slacklib.MarkdownType, note, false, false))
	}
	if len(ctxElems) > 0 {
		blocks = append(blocks, slacklib.NewContextBlock("", ctxElems...))
	}

	return blocks
}

func fallbackText(item Item) string {
	return item.Article.Headline + " " + item.Article.URL
}

// escapeMrkdwn escapes the three characters Slack treats as control sequences.
func escapeMrkdwn(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
