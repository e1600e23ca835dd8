package bandcamp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DisTuneJS/plugins/internal/domain"
	"github.com/DisTuneJS/plugins/internal/extractor"
)

func TestCanResolve(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"track page", "https://artist.bandcamp.com/track/daybreak", true},
		{"album page", "https://artist.bandcamp.com/album/first-light", true},
		{"mixed case host", "https://Artist.Bandcamp.COM/track/daybreak", true},
		{"bare domain", "https://bandcamp.com/track/daybreak", false},
		{"music page", "https://artist.bandcamp.com/music", false},
		{"other site", "https://artist.example.com/track/daybreak", false},
		{"lookalike domain", "https://artist.notbandcamp.com/track/daybreak", false},
		{"malformed", "://not-a-url", false},
		{"empty", "", false},
		{"plain text", "daybreak by night shift", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.CanResolve(tt.url))
		})
	}
}

func TestResolve_UnsupportedURL(t *testing.T) {
	e := New(nil)

	_, err := e.Resolve(context.Background(), "https://example.com/song.mp3")
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrUnsupportedURL)

	var srcErr *extractor.SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, SourceName, srcErr.Source)
}

func TestResolveTrackPage(t *testing.T) {
	page := tralbumPage(t, map[string]any{
		"artist":  "Night Shift",
		"current": map[string]any{"title": "First Light", "id": 77},
		"trackinfo": []map[string]any{
			{
				"track_id": 900,
				"title":    "Daybreak",
				"duration": 241.2,
				"file":     map[string]string{"mp3-128": "//t4.bcbits.com/stream/daybreak"},
			},
		},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	e := New(nil)
	track, err := e.resolveTrack(context.Background(), srv.URL+"/track/daybreak")
	require.NoError(t, err)

	assert.Equal(t, "Daybreak", track.Title)
	assert.Equal(t, 241.2, track.Duration)
	assert.Equal(t, srv.URL+"/track/daybreak", track.URL)
	assert.Equal(t, "https://t4.bcbits.com/stream/daybreak", track.StreamURL)
}

func TestResolveTrackPage_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	e := New(nil)
	_, err := e.resolveTrack(context.Background(), srv.URL+"/track/daybreak")
	require.Error(t, err)

	var fetchErr *extractor.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestResolveAlbumPage(t *testing.T) {
	page := tralbumPage(t, map[string]any{
		"artist":  "Night Shift",
		"current": map[string]any{"title": "First Light", "id": 77},
		"trackinfo": []map[string]any{
			{"track_id": 1, "title": "One", "title_link": "/track/one", "track_num": 1,
				"file": map[string]string{"mp3-128": "//s/one"}},
			{"track_id": 2, "title": "Two", "title_link": "/track/two", "track_num": 2},
			{"track_id": 3, "title": "Three", "title_link": "/track/three", "track_num": 3,
				"file": map[string]string{"mp3-128": "//s/three"}},
		},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	e := New(nil)
	album, err := e.resolveAlbum(context.Background(), srv.URL+"/album/first-light")
	require.NoError(t, err)

	assert.Equal(t, "First Light", album.Title)
	require.Len(t, album.Tracks, 2)
	assert.Equal(t, "One", album.Tracks[0].Title)
	assert.Equal(t, "Three", album.Tracks[1].Title)
	assert.Equal(t, 1, album.Dropped)
}

func TestStreamURL(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		track    *domain.Track
		expected string
		wantErr  bool
	}{
		{
			name:     "schemed url unchanged",
			track:    &domain.Track{StreamURL: "https://t4.bcbits.com/stream/x"},
			expected: "https://t4.bcbits.com/stream/x",
		},
		{
			name:     "protocol relative url gains scheme",
			track:    &domain.Track{StreamURL: "//t4.bcbits.com/stream/x"},
			expected: "https://t4.bcbits.com/stream/x",
		},
		{
			name:    "missing stream url",
			track:   &domain.Track{},
			wantErr: true,
		},
		{
			name:    "nil track",
			track:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.StreamURL(tt.track)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, extractor.ErrInvalidSong)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRelatedTracks(t *testing.T) {
	parentPage := tralbumPage(t, map[string]any{
		"artist":  "Night Shift",
		"current": map[string]any{"title": "First Light", "id": 77},
		"trackinfo": []map[string]any{
			{"track_id": 1, "title": "One", "title_link": "/track/one",
				"file": map[string]string{"mp3-128": "//s/one"}},
			{"track_id": 2, "title": "Two", "title_link": "/track/two",
				"file": map[string]string{"mp3-128": "//s/two"}},
			{"track_id": 3, "title": "Three", "title_link": "/track/three"},
			{"track_id": 4, "title": "Four", "title_link": "/track/four",
				"file": map[string]string{"mp3-128": "//s/four"}},
		},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/album/first-light" {
			_, _ = w.Write([]byte(parentPage))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := New(nil)
	subject := &domain.Track{ID: "2", URL: srv.URL + "/album/first-light/track/two"}

	related := e.RelatedTracks(context.Background(), subject)
	require.Len(t, related, 2)
	assert.Equal(t, "One", related[0].Title)
	assert.Equal(t, "Four", related[1].Title)
}

func TestRelatedTracks_BestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(nil)

	tests := []struct {
		name  string
		track *domain.Track
	}{
		{"nil track", nil},
		{"no track segment", &domain.Track{ID: "1", URL: srv.URL + "/album/x"}},
		{"fetch failure", &domain.Track{ID: "1", URL: srv.URL + "/album/x/track/y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, e.RelatedTracks(context.Background(), tt.track))
		})
	}
}
