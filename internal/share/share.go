// Package share sends articles, optionally with their analysis headline, to
// external platforms.
package share

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gosuda/newsroom/internal/domain"
)

var (
	// ErrPlatformNotFound is returned when a platform is not registered.
	ErrPlatformNotFound = errors.New("share: platform not found")
	// ErrNoPlatforms is returned when no platform is configured at all.
	ErrNoPlatforms = errors.New("share: no platforms configured")
)

// Item is what gets shared.
type Item struct {
	Article domain.Article
	// Note is an optional personal message from the sharer.
	Note string
	// SharedBy is the display name of the user sharing.
	SharedBy string
	// Analysis is an optional one-line analysis summary.
	Analysis string
}

// Receipt describes the outcome of a share. URL is set for platforms that
// hand back a link for the user to open instead of posting directly.
type Receipt struct {
	Platform  string `json:"platform"`
	Delivered bool   `json:"delivered"`
	URL       string `json:"url,omitempty"`
}

// Sharer delivers an Item to one platform.
type Sharer interface {
	Platform() string
	Share(ctx context.Context, item Item) (Receipt, error)
}

// Registry maps platform names to sharers.
type Registry struct {
	mu      sync.RWMutex
	sharers map[string]Sharer
}

func NewRegistry() *Registry {
	return &Registry{
		sharers: make(map[string]Sharer),
	}
}

// Register adds s under its platform name.
func (r *Registry) Register(s Sharer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sharers[s.Platform()] = s
}

// Get returns the sharer for platform, or false if not registered.
func (r *Registry) Get(platform string) (Sharer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sharers[platform]
	return s, ok
}

// Available returns registered platform names in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.sharers))
}

// Share delivers item through the named platform.
func (r *Registry) Share(ctx context.Context, platform string, item Item) (Receipt, error) {
	r.mu.RLock()
	empty := len(r.sharers) == 0
	s, ok := r.sharers[platform]
	r.mu.RUnlock()

	if empty {
		return Receipt{}, fmt.Errorf("share.Registry.Share: %w", ErrNoPlatforms)
	}
	if !ok {
		return Receipt{}, fmt.Errorf("share.Registry.Share(%q): %w", platform, ErrPlatformNotFound)
	}

	receipt, err := s.Share(ctx, item)
	if err != nil {
		return Receipt{}, fmt.Errorf("share.Registry.Share(%q): %w", platform, err)
	}

	return receipt, nil
}
