// Package feed gathers articles from the configured publisher sources and
// serves them as one deduplicated, queryable list.
package feed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSource is returned when a sources file entry is incomplete.
var ErrInvalidSource = errors.New("feed: invalid source") //nolint:gochecknoglobals // sentinel error

// OAuth2Credentials configures the client-credentials grant for a source.
type OAuth2Credentials struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	Scopes       []string `yaml:"scopes"`
}

// Source is one publisher endpoint.
type Source struct {
	Name         string             `yaml:"name"`
	URL          string             `yaml:"url"`
	Format       string             `yaml:"format"`
	Category     string             `yaml:"category"`
	APIKeyHeader string             `yaml:"api_key_header"`
	APIKey       string             `yaml:"api_key"`
	OAuth2       *OAuth2Credentials `yaml:"oauth2"`
	Disabled     bool               `yaml:"disabled"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads a YAML sources file. ${VAR} references are expanded from
// the environment so credentials can stay out of the file.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feed.LoadSources: %w", err)
	}

	sources, err := ParseSources([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("feed.LoadSources(%s): %w", path, err)
	}
	return sources, nil
}

// ParseSources decodes and validates a sources document. Disabled sources
// are dropped.
func ParseSources(data []byte) ([]Source, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("feed.ParseSources: %w", err)
	}

	seen := make(map[string]bool, len(file.Sources))
	out := make([]Source, 0, len(file.Sources))
	for i, src := range file.Sources {
		src.Name = strings.TrimSpace(src.Name)
		if src.Name == "" || src.URL == "" {
			return nil, fmt.Errorf("feed.ParseSources: entry %d needs name and url: %w", i, ErrInvalidSource)
		}
		key := strings.ToLower(src.Name)
		if seen[key] {
			return nil, fmt.Errorf("feed.ParseSources: duplicate source %q: %w", src.Name, ErrInvalidSource)
		}
		seen[key] = true

		if src.Format == "" {
			src.Format = FormatJSON
		}
		if src.APIKey != "" && src.APIKeyHeader == "" {
			src.APIKeyHeader = "X-Api-Key"
		}
		if src.OAuth2 != nil && (src.OAuth2.ClientID == "" || src.OAuth2.TokenURL == "") {
			return nil, fmt.Errorf("feed.ParseSources: source %q oauth2 needs client_id and token_url: %w", src.Name, ErrInvalidSource)
		}
		if src.Disabled {
			continue
		}
		out = append(out, src)
	}

	return out, nil
}
