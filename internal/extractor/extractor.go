// Package extractor defines the contract between the playback host and the
// individual source plugins, along with the registry that routes URLs to
// the first plugin able to handle them.
package extractor

import (
	"context"
	"fmt"

	"github.com/DisTuneJS/plugins/internal/domain"
)

// Result holds the outcome of resolving a URL. Exactly one field is set:
// Track for single-track pages, Album for multi-track ones.
type Result struct {
	Track *domain.Track
	Album *domain.Album
}

// Extractor resolves URLs for one external source.
type Extractor interface {
	// Source returns the fixed tag identifying this plugin.
	Source() string

	// CanResolve reports whether this plugin handles the given URL.
	// Malformed input yields false, never an error.
	CanResolve(url string) bool

	// Resolve fetches and assembles the entity behind a URL.
	Resolve(ctx context.Context, url string) (*Result, error)
}

// Searcher is implemented by plugins that support keyword search.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]*domain.Track, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]*domain.Album, error)
}

// Registry dispatches URLs across a fixed, ordered set of plugins.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a registry. Order matters: the first plugin whose
// CanResolve returns true handles the URL.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Resolve routes url to the first supporting plugin.
func (r *Registry) Resolve(ctx context.Context, url string) (*Result, error) {
	for _, e := range r.extractors {
		if e.CanResolve(url) {
			return e.Resolve(ctx, url)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
}

// CanResolve reports whether any registered plugin supports url.
func (r *Registry) CanResolve(url string) bool {
	for _, e := range r.extractors {
		if e.CanResolve(url) {
			return true
		}
	}
	return false
}
