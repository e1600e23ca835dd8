// Package bandcamp resolves bandcamp.com track and album pages into
// playable track metadata by scraping the structured data blob embedded in
// the page markup, and searches the site's autocomplete endpoint.
package bandcamp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/DisTuneJS/plugins/config"
	"github.com/DisTuneJS/plugins/internal/domain"
	"github.com/DisTuneJS/plugins/internal/extractor"
)

// SourceName tags every entity and error produced by this plugin.
const SourceName = "bandcamp"

const maxRelatedTracks = 10

var bandcampHost = regexp.MustCompile(`^[^.]+\.bandcamp\.com$`)

// Extractor scrapes bandcamp pages. Each call is stateless with respect to
// prior calls; the zero cost of a collector per fetch keeps it that way.
type Extractor struct {
	fetcher   *pageFetcher
	client    *http.Client
	searchURL string
	userAgent string

	// SearchProgress, when set, is invoked after each search candidate
	// completes with the number done so far and the total dispatched.
	SearchProgress func(done, total int)
}

func New(cfg *config.Config) *Extractor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Extractor{
		fetcher:   newPageFetcher(cfg.UserAgent),
		client:    &http.Client{},
		searchURL: searchEndpoint,
		userAgent: cfg.UserAgent,
	}
}

func (e *Extractor) Source() string { return SourceName }

// CanResolve reports whether rawURL points at a bandcamp track or album
// page. Malformed input yields false.
func (e *Extractor) CanResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !bandcampHost.MatchString(strings.ToLower(u.Hostname())) {
		return false
	}
	return strings.Contains(u.Path, "/track/") || strings.Contains(u.Path, "/album/")
}

// Resolve fetches a track or album page and assembles its entity. Every
// internal failure surfaces as a single source-tagged error.
func (e *Extractor) Resolve(ctx context.Context, rawURL string) (*extractor.Result, error) {
	if !e.CanResolve(rawURL) {
		return nil, extractor.WrapSource(SourceName,
			fmt.Errorf("%w: %s", extractor.ErrUnsupportedURL, rawURL))
	}

	u, _ := url.Parse(rawURL)
	if strings.Contains(u.Path, "/track/") {
		track, err := e.resolveTrack(ctx, rawURL)
		if err != nil {
			return nil, extractor.WrapSource(SourceName, err)
		}
		return &extractor.Result{Track: track}, nil
	}

	album, err := e.resolveAlbum(ctx, rawURL)
	if err != nil {
		return nil, extractor.WrapSource(SourceName, err)
	}
	return &extractor.Result{Album: album}, nil
}

func (e *Extractor) resolveTrack(ctx context.Context, pageURL string) (*domain.Track, error) {
	page, err := e.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	rec, err := extractTralbum(page)
	if err != nil {
		return nil, err
	}
	return assembleTrack(rec, page, pageURL)
}

func (e *Extractor) resolveAlbum(ctx context.Context, pageURL string) (*domain.Album, error) {
	page, err := e.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	rec, err := extractTralbum(page)
	if err != nil {
		return nil, err
	}
	return assembleAlbum(rec, page, pageURL)
}

// StreamURL returns the track's stream URL with an explicit scheme, or
// ErrInvalidSong when the track carries none.
func (e *Extractor) StreamURL(track *domain.Track) (string, error) {
	if track == nil || track.StreamURL == "" {
		return "", extractor.WrapSource(SourceName, extractor.ErrInvalidSong)
	}
	return normalizeStreamURL(track.StreamURL), nil
}

// RelatedTracks returns up to ten other tracks from the page containing
// track. The lookup is best-effort supplementary data: any failure yields
// an empty slice, never an error.
func (e *Extractor) RelatedTracks(ctx context.Context, track *domain.Track) []*domain.Track {
	if track == nil {
		return nil
	}
	idx := strings.LastIndex(track.URL, "/track/")
	if idx <= 0 {
		return nil
	}
	parentURL := track.URL[:idx]

	page, err := e.fetcher.fetch(ctx, parentURL)
	if err != nil {
		slog.Debug("related tracks fetch failed", "url", parentURL, "error", err)
		return nil
	}
	rec, err := extractTralbum(page)
	if err != nil {
		slog.Debug("related tracks parse failed", "url", parentURL, "error", err)
		return nil
	}

	meta := parsePageMeta(page)
	var related []*domain.Track
	for _, entry := range rec.TrackInfo {
		if len(related) == maxRelatedTracks {
			break
		}
		if entry.streamURL() == "" || entry.identifier() == track.ID {
			continue
		}
		related = append(related, buildTrack(rec, entry, meta, trackPageURL(parentURL, entry.TitleLink)))
	}
	return related
}
