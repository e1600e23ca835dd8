package bandcamp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/DisTuneJS/plugins/internal/domain"
	"github.com/DisTuneJS/plugins/internal/extractor"
)

const searchEndpoint = "https://bandcamp.com/api/bcsearch_public_api/1/autocomplete_elastic"

// Result-kind tags emitted by the autocomplete endpoint.
const (
	searchKindTrack = "t"
	searchKindAlbum = "a"
)

type searchRequest struct {
	SearchText   string `json:"search_text"`
	SearchFilter string `json:"search_filter"`
	FullPage     bool   `json:"full_page"`
}

type searchResponse struct {
	Auto struct {
		Results []searchCandidate `json:"results"`
	} `json:"auto"`
}

// searchCandidate is one entry from the autocomplete response. Candidates
// are ephemeral: they only drive the per-candidate page fetch.
type searchCandidate struct {
	Kind     string `json:"type"`
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	URLPath  string `json:"item_url_path"`
	BandName string `json:"band_name"`
	BandID   int64  `json:"band_id"`
	ImageURL string `json:"img"`
}

// pageURL builds the fetchable page URL for the candidate. The endpoint
// emits absolute URLs for most results and source-relative fragments for
// the rest.
func (c *searchCandidate) pageURL() string {
	if strings.HasPrefix(c.URLPath, "http") {
		return c.URLPath
	}
	return "https://bandcamp.com" + c.URLPath
}

// SearchTracks resolves up to limit track results for query, in the order
// the endpoint ranked them.
func (e *Extractor) SearchTracks(ctx context.Context, query string, limit int) ([]*domain.Track, error) {
	candidates, err := e.search(ctx, query, searchKindTrack, limit)
	if err != nil {
		return nil, extractor.WrapSource(SourceName, err)
	}
	return resolveCandidates(ctx, e, candidates, e.resolveTrack), nil
}

// SearchAlbums resolves up to limit album results for query, in the order
// the endpoint ranked them.
func (e *Extractor) SearchAlbums(ctx context.Context, query string, limit int) ([]*domain.Album, error) {
	candidates, err := e.search(ctx, query, searchKindAlbum, limit)
	if err != nil {
		return nil, extractor.WrapSource(SourceName, err)
	}
	return resolveCandidates(ctx, e, candidates, e.resolveAlbum), nil
}

// search calls the autocomplete endpoint once and returns up to limit
// candidates of the requested kind. A zero-candidate response is an error;
// candidates failing later, during page fetch, are not.
func (e *Extractor) search(ctx context.Context, query, kind string, limit int) ([]searchCandidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be a positive integer", extractor.ErrInvalidArgument)
	}

	payload, err := json.Marshal(searchRequest{
		SearchText:   query,
		SearchFilter: kind,
		FullPage:     false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &extractor.FetchError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	var matching []searchCandidate
	for _, cand := range searchResp.Auto.Results {
		if cand.Kind == kind {
			matching = append(matching, cand)
		}
	}
	if len(matching) == 0 {
		return nil, fmt.Errorf("%w for %q", extractor.ErrNoResults, query)
	}
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

// resolveCandidates fetches and parses every candidate page concurrently,
// with no in-flight bound, and keeps the survivors in dispatch order. A
// failing candidate is logged and excluded; it never aborts the search.
func resolveCandidates[T any](
	ctx context.Context,
	e *Extractor,
	candidates []searchCandidate,
	resolve func(ctx context.Context, pageURL string) (T, error),
) []T {
	slots := make([]T, len(candidates))
	kept := make([]bool, len(candidates))

	var mu sync.Mutex
	completed := 0
	total := len(candidates)

	g := new(errgroup.Group)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			v, err := resolve(ctx, cand.pageURL())
			if err != nil {
				slog.Warn("skipping search result",
					"name", cand.Name, "url", cand.pageURL(), "error", err)
			} else {
				slots[i] = v
				kept[i] = true
			}

			if e.SearchProgress != nil {
				mu.Lock()
				completed++
				done := completed
				mu.Unlock()
				e.SearchProgress(done, total)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]T, 0, len(candidates))
	for i := range slots {
		if kept[i] {
			out = append(out, slots[i])
		}
	}
	return out
}
