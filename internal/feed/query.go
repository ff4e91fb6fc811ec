package feed

import (
	"slices"
	"strings"

	"github.com/gosuda/newsroom/internal/domain"
)

// Sort orders.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortSource   = "source"
	SortHeadline = "headline"
)

// Query filters, orders and pages the merged feed.
type Query struct {
	Source   string
	Category string
	Search   string
	Sort     string
	Limit    int
	Offset   int
}

// Apply returns the page of articles matching q and the total number of
// matches before paging. The input slice is not modified.
func Apply(articles []domain.Article, q Query) ([]domain.Article, int) {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	matched := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if q.Source != "" && !strings.EqualFold(a.Source, q.Source) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(a.Category, q.Category) {
			continue
		}
		if search != "" && !matches(a, search) {
			continue
		}
		matched = append(matched, a)
	}

	switch q.Sort {
	case SortOldest:
		slices.SortStableFunc(matched, func(x, y domain.Article) int {
			return x.PublishedAt.Compare(y.PublishedAt)
		})
	case SortSource:
		slices.SortStableFunc(matched, func(x, y domain.Article) int {
			return strings.Compare(strings.ToLower(x.Source), strings.ToLower(y.Source))
		})
	case SortHeadline:
		slices.SortStableFunc(matched, func(x, y domain.Article) int {
			return strings.Compare(strings.ToLower(x.Headline), strings.ToLower(y.Headline))
		})
	default:
		slices.SortStableFunc(matched, func(x, y domain.Article) int {
			return y.PublishedAt.Compare(x.PublishedAt)
		})
	}

	total := len(matched)
	offset := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(offset+q.Limit, total)
	}

	return matched[offset:end], total
}

func matches(a domain.Article, needle string) bool {
	for _, field := range []string{a.Headline, a.Summary, a.Content, a.Source} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
