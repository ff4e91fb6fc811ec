package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosuda/newsroom/internal/domain"
)

const (
	FormatJSON    = "json"
	FormatNewsAPI = "newsapi"
)

// jsonItem accepts the common field spellings of simple publisher feeds.
type jsonItem struct {
	Headline    string `json:"headline"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Date        string `json:"date"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
	Link        string `json:"link"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

// parseJSON reads either a bare array of items or an {"articles": [...]} envelope.
func parseJSON(body []byte, src Source) ([]domain.Article, error) {
	var items []jsonItem

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	} else {
		var env struct {
			Articles []jsonItem `json:"articles"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		items = env.Articles
	}

	out := make([]domain.Article, 0, len(items))
	for _, it := range items {
		a := domain.Article{
			Headline:    firstNonEmpty(it.Headline, it.Title),
			Summary:     firstNonEmpty(it.Summary, it.Description),
			Content:     it.Content,
			Source:      firstNonEmpty(it.Source, src.Name),
			Category:    firstNonEmpty(it.Category, src.Category),
			URL:         firstNonEmpty(it.URL, it.Link),
			ImageURL:    it.ImageURL,
			PublishedAt: parseTime(firstNonEmpty(it.PublishedAt, it.Date)),
		}
		if a.Headline == "" || a.URL == "" {
			continue
		}
		out = append(out, a)
	}

	return out, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// parseNewsAPI reads the NewsAPI.org top-headlines/everything response shape.
func parseNewsAPI(body []byte, src Source) ([]domain.Article, error) {
	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode newsapi: %w", err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q: %s %s", resp.Status, resp.Code, resp.Message)
	}

	out := make([]domain.Article, 0, len(resp.Articles))
	for _, it := range resp.Articles {
		// NewsAPI marks withdrawn items with this placeholder title.
		if it.Title == "" || it.Title == "[Removed]" || it.URL == "" {
			continue
		}
		out = append(out, domain.Article{
			Headline:    it.Title,
			Summary:     it.Description,
			Content:     it.Content,
			Source:      firstNonEmpty(it.Source.Name, src.Name),
			Category:    src.Category,
			URL:         it.URL,
			ImageURL:    it.URLToImage,
			PublishedAt: parseTime(it.PublishedAt),
		})
	}

	return out, nil
}

var timeLayouts = []string{ //nolint:gochecknoglobals // fixed layout list
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
	time.RFC1123Z,
	time.RFC1123,
}

// parseTime accepts the layouts publishers commonly emit. Unparseable values
// yield the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
