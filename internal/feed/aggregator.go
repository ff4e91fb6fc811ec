package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/newsroom/internal/domain"
)

// ErrAllSourcesFailed is returned when no source could be fetched.
var ErrAllSourcesFailed = errors.New("feed: all sources failed") //nolint:gochecknoglobals // sentinel error

// Cache abstracts the Redis key/value operations used for the merged feed.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AggregatorOptions tunes an Aggregator. Zero values fall back to defaults.
type AggregatorOptions struct {
	CacheKey      string
	TTL           time.Duration
	Concurrency   int
	SourceTimeout time.Duration
}

// Aggregator merges every source into one list, newest first.
type Aggregator struct {
	fetchers []*Fetcher
	cache    Cache
	opts     AggregatorOptions
	logger   zerolog.Logger

	// refreshMu serializes refreshes so a cold cache triggers one fan-out.
	refreshMu sync.Mutex

	mu      sync.RWMutex
	current []domain.Article
	fetched time.Time
}

// NewAggregator creates an Aggregator. cache may be nil, in which case the
// merged list is only kept in memory.
func NewAggregator(fetchers []*Fetcher, cache Cache, opts AggregatorOptions, logger zerolog.Logger) *Aggregator {
	if opts.CacheKey == "" {
		opts.CacheKey = "feed:articles"
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 15 * time.Second
	}
	return &Aggregator{
		fetchers: fetchers,
		cache:    cache,
		opts:     opts,
		logger:   logger,
	}
}

// Sources returns the configured source names in configuration order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.fetchers))
	for i, f := range a.fetchers {
		names[i] = f.Source().Name
	}
	return names
}

// Articles returns the merged feed, served from cache while it is fresh.
func (a *Aggregator) Articles(ctx context.Context) ([]domain.Article, error) {
	if articles, ok := a.cached(ctx); ok {
		return articles, nil
	}

	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if articles, ok := a.cached(ctx); ok {
		return articles, nil
	}
	return a.refreshLocked(ctx)
}

// Article returns one article of the merged feed by ID.
func (a *Aggregator) Article(ctx context.Context, id string) (domain.Article, error) {
	articles, err := a.Articles(ctx)
	if err != nil {
		return domain.Article{}, err
	}
	for _, art := range articles {
		if art.ID == id {
			return art, nil
		}
	}
	return domain.Article{}, fmt.Errorf("feed.Aggregator.Article(%s): %w", id, domain.ErrNotFound)
}

// Refresh fetches every source now, bypassing the cache.
func (a *Aggregator) Refresh(ctx context.Context) ([]domain.Article, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()
	return a.refreshLocked(ctx)
}

func (a *Aggregator) cached(ctx context.Context) ([]domain.Article, bool) {
	if a.cache != nil {
		raw, ok, err := a.cache.Get(ctx, a.opts.CacheKey)
		if err != nil {
			a.logger.Warn().Err(err).Msg("feed: cache read failed")
		}
		if ok {
			var articles []domain.Article
			if jsonErr := json.Unmarshal(raw, &articles); jsonErr == nil {
				return articles, true
			}
		}
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current != nil && time.Since(a.fetched) < a.opts.TTL {
		return a.current, true
	}
	return nil, false
}

func (a *Aggregator) refreshLocked(ctx context.Context) ([]domain.Article, error) {
	if len(a.fetchers) == 0 {
		return []domain.Article{}, nil
	}

	results := make([][]domain.Article, len(a.fetchers))
	failures := make([]error, len(a.fetchers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, f := range a.fetchers {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, a.opts.SourceTimeout)
			defer cancel()

			start := time.Now()
			articles, err := f.Fetch(fctx)
			if err != nil {
				failures[i] = err
				a.logger.Warn().Err(err).Str("source", f.Source().Name).Msg("feed: source fetch failed")
				return nil
			}
			results[i] = articles
			a.logger.Debug().
				Str("source", f.Source().Name).
				Int("articles", len(articles)).
				Dur("elapsed", time.Since(start)).
				Msg("feed: source fetched")
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("feed.Aggregator.Refresh: %w", ctx.Err())
	}
	failed := 0
	for _, err := range failures {
		if err != nil {
			failed++
		}
	}
	if failed == len(a.fetchers) {
		return nil, fmt.Errorf("feed.Aggregator.Refresh: %w: %w", ErrAllSourcesFailed, errors.Join(failures...))
	}

	merged := Merge(results...)

	a.mu.Lock()
	a.current = merged
	a.fetched = time.Now()
	a.mu.Unlock()

	if a.cache != nil {
		if payload, err := json.Marshal(merged); err == nil {
			if setErr := a.cache.Set(ctx, a.opts.CacheKey, payload, a.opts.TTL); setErr != nil {
				a.logger.Warn().Err(setErr).Msg("feed: cache write failed")
			}
		}
	}

	a.logger.Info().
		Int("sources", len(a.fetchers)).
		Int("failed", failed).
		Int("articles", len(merged)).
		Msg("feed: refreshed")

	return merged, nil
}

// Merge combines per-source lists, keeping the first article seen for each
// normalized URL, assigns IDs, and sorts newest first.
func Merge(lists ...[]domain.Article) []domain.Article {
	seen := make(map[string]bool)
	out := make([]domain.Article, 0)
	for _, list := range lists {
		for _, art := range list {
			key := domain.NormalizeURL(art.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
			art.ID = domain.ArticleID(art.URL)
			out = append(out, art)
		}
	}

	slices.SortStableFunc(out, func(x, y domain.Article) int {
		return y.PublishedAt.Compare(x.PublishedAt)
	})
	return out
}
