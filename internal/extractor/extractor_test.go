package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DisTuneJS/plugins/internal/domain"
)

// fakeExtractor handles every URL with the given prefix and records
// whether it was asked to resolve.
type fakeExtractor struct {
	source   string
	prefix   string
	err      error
	resolved bool
}

func (f *fakeExtractor) Source() string { return f.source }

func (f *fakeExtractor) CanResolve(url string) bool {
	return strings.HasPrefix(url, f.prefix)
}

func (f *fakeExtractor) Resolve(ctx context.Context, url string) (*Result, error) {
	f.resolved = true
	if f.err != nil {
		return nil, f.err
	}
	return &Result{Track: &domain.Track{Source: f.source, URL: url}}, nil
}

func TestRegistryResolve_FirstMatchWins(t *testing.T) {
	first := &fakeExtractor{source: "first", prefix: "https://a.example/"}
	second := &fakeExtractor{source: "second", prefix: "https://a.example/"}
	r := NewRegistry(first, second)

	result, err := r.Resolve(context.Background(), "https://a.example/track/1")
	require.NoError(t, err)
	require.NotNil(t, result.Track)

	assert.Equal(t, "first", result.Track.Source)
	assert.True(t, first.resolved)
	assert.False(t, second.resolved)
}

func TestRegistryResolve_RoutesByPlugin(t *testing.T) {
	a := &fakeExtractor{source: "a", prefix: "https://a.example/"}
	b := &fakeExtractor{source: "b", prefix: "https://b.example/"}
	r := NewRegistry(a, b)

	result, err := r.Resolve(context.Background(), "https://b.example/song")
	require.NoError(t, err)
	assert.Equal(t, "b", result.Track.Source)
	assert.False(t, a.resolved)
}

func TestRegistryResolve_Unsupported(t *testing.T) {
	r := NewRegistry(&fakeExtractor{source: "a", prefix: "https://a.example/"})

	_, err := r.Resolve(context.Background(), "https://elsewhere.example/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedURL)
	assert.Contains(t, err.Error(), "https://elsewhere.example/x")
}

func TestRegistryCanResolve(t *testing.T) {
	r := NewRegistry(
		&fakeExtractor{source: "a", prefix: "https://a.example/"},
		&fakeExtractor{source: "b", prefix: "https://b.example/"},
	)

	assert.True(t, r.CanResolve("https://a.example/track/1"))
	assert.True(t, r.CanResolve("https://b.example/album/2"))
	assert.False(t, r.CanResolve("https://c.example/anything"))
}

func TestWrapSource(t *testing.T) {
	base := fmt.Errorf("resolving page: %w", ErrNoResults)

	err := WrapSource("bandcamp", base)
	require.Error(t, err)
	assert.EqualError(t, err, "bandcamp: resolving page: no results")
	assert.ErrorIs(t, err, ErrNoResults)

	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bandcamp", se.Source)
}

func TestWrapSource_Idempotent(t *testing.T) {
	inner := WrapSource("bandcamp", errors.New("boom"))

	// A second wrap, even under a different source, is a no-op.
	outer := WrapSource("yt-dlp", inner)
	assert.Same(t, inner, outer)

	var se *SourceError
	require.ErrorAs(t, outer, &se)
	assert.Equal(t, "bandcamp", se.Source)
}

func TestWrapSource_Nil(t *testing.T) {
	assert.NoError(t, WrapSource("bandcamp", nil))
}

func TestFetchError(t *testing.T) {
	err := &FetchError{StatusCode: 503, Status: "Service Unavailable"}
	assert.EqualError(t, err, "fetch failed with status 503 Service Unavailable")

	wrapped := WrapSource("bandcamp", err)
	var fe *FetchError
	require.ErrorAs(t, wrapped, &fe)
	assert.Equal(t, 503, fe.StatusCode)
}
