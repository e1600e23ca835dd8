// Package domain holds the value records the extractor plugins hand to the
// playback host. Records are immutable once assembled.
package domain

// Track represents one playable track resolved from an external source.
type Track struct {
	Source       string  `json:"source"`
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	ArtistURL    string  `json:"artist_url,omitempty"`
	Album        string  `json:"album,omitempty"`
	Duration     float64 `json:"duration"`
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	StreamURL    string  `json:"stream_url,omitempty"`
	TrackNumber  int     `json:"track_number,omitempty"`
}

// Album represents an ordered collection of tracks from one page. Track
// order matches the source's emission order, never re-sorted.
type Album struct {
	Source       string   `json:"source"`
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	ArtistURL    string   `json:"artist_url,omitempty"`
	URL          string   `json:"url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tracks       []*Track `json:"tracks"`

	// Dropped counts source entries discarded for lacking a stream URL.
	Dropped int `json:"dropped,omitempty"`
}
