package feed

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gosuda/newsroom/internal/domain"
)

// ErrUnknownFormat is returned when a source names an unregistered format.
var ErrUnknownFormat = errors.New("feed: unknown format") //nolint:gochecknoglobals // sentinel error

// Parser turns a response body from src into articles.
type Parser func(body []byte, src Source) ([]domain.Article, error)

// Registry maps format names to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// DefaultRegistry returns a registry with the built-in formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatJSON, parseJSON)
	r.Register(FormatNewsAPI, parseNewsAPI)
	return r
}

// Register adds a parser for a format.
func (r *Registry) Register(format string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[format] = p
}

// Parse decodes body with the parser registered for src.Format.
func (r *Registry) Parse(body []byte, src Source) ([]domain.Article, error) {
	r.mu.RLock()
	p, ok := r.parsers[src.Format]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("feed.Registry.Parse(%q): %w", src.Format, ErrUnknownFormat)
	}

	articles, err := p(body, src)
	if err != nil {
		return nil, fmt.Errorf("feed.Registry.Parse(%q): %w", src.Format, err)
	}

	return articles, nil
}

// Available returns registered format names in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.parsers))
}
