package bandcamp

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DisTuneJS/plugins/internal/domain"
	"github.com/DisTuneJS/plugins/internal/extractor"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// pageMeta is the Open Graph view of a page, consulted only when the
// tralbum record lacks a field.
type pageMeta struct {
	siteName string
	image    string
}

func parsePageMeta(page string) pageMeta {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return pageMeta{}
	}
	return pageMeta{
		siteName: metaProperty(doc, "og:site_name"),
		image:    metaProperty(doc, "og:image"),
	}
}

func metaProperty(doc *goquery.Document, property string) string {
	return doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).AttrOr("content", "")
}

func resolveArtist(rec *tralbum, meta pageMeta) string {
	if rec.Artist != "" {
		return rec.Artist
	}
	if meta.siteName != "" {
		return meta.siteName
	}
	return unknownArtist
}

func resolveThumbnail(rec *tralbum, meta pageMeta) string {
	switch {
	case rec.ArtFullsizeURL != "":
		return rec.ArtFullsizeURL
	case rec.ArtThumbURL != "":
		return rec.ArtThumbURL
	default:
		return meta.image
	}
}

// normalizeStreamURL gives a stream URL an explicit transport scheme.
// Bandcamp typically emits protocol-relative URLs.
func normalizeStreamURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	return "https:" + u
}

// originOf returns the scheme://host prefix of pageURL, used as the
// uploader URL.
func originOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// trackPageURL derives the canonical page URL for one album entry: the
// /album/ suffix of the album URL is swapped for the entry's slug when one
// is available, otherwise the album URL is reused verbatim.
func trackPageURL(pageURL, slug string) string {
	if slug == "" {
		return pageURL
	}
	if i := strings.Index(pageURL, "/album/"); i >= 0 {
		return pageURL[:i] + slug
	}
	if origin := originOf(pageURL); origin != "" {
		return origin + slug
	}
	return pageURL
}

func buildTrack(rec *tralbum, entry tralbumTrack, meta pageMeta, pageURL string) *domain.Track {
	return &domain.Track{
		Source:       SourceName,
		ID:           entry.identifier(),
		Title:        entry.Title,
		Artist:       resolveArtist(rec, meta),
		ArtistURL:    originOf(pageURL),
		Duration:     entry.Duration,
		URL:          pageURL,
		ThumbnailURL: resolveThumbnail(rec, meta),
		StreamURL:    normalizeStreamURL(entry.streamURL()),
		TrackNumber:  entry.TrackNum,
	}
}

// assembleTrack builds the subject track of a track page from the first
// trackinfo entry. A track page with no playable stream is not
// representable.
func assembleTrack(rec *tralbum, page, pageURL string) (*domain.Track, error) {
	if len(rec.TrackInfo) == 0 || rec.TrackInfo[0].streamURL() == "" {
		return nil, &extractor.ParseError{Reason: "stream URL not found"}
	}

	meta := parsePageMeta(page)
	track := buildTrack(rec, rec.TrackInfo[0], meta, pageURL)
	if rec.Current != nil {
		track.Album = rec.Current.Title
	}
	return track, nil
}

// assembleAlbum builds an album from every trackinfo entry that carries a
// usable stream URL, preserving the source's track ordering. Entries
// without one are counted in Dropped rather than reported individually.
func assembleAlbum(rec *tralbum, page, pageURL string) (*domain.Album, error) {
	meta := parsePageMeta(page)

	album := &domain.Album{
		Source:       SourceName,
		Title:        unknownAlbum,
		Artist:       resolveArtist(rec, meta),
		ArtistURL:    originOf(pageURL),
		URL:          pageURL,
		ThumbnailURL: resolveThumbnail(rec, meta),
	}
	if rec.Current != nil {
		if rec.Current.Title != "" {
			album.Title = rec.Current.Title
		}
		if rec.Current.ID != 0 {
			album.ID = strconv.FormatInt(rec.Current.ID, 10)
		}
	}
	if album.ID == "" {
		album.ID = slugify(pageURL)
	}

	for _, entry := range rec.TrackInfo {
		if entry.streamURL() == "" {
			album.Dropped++
			continue
		}
		track := buildTrack(rec, entry, meta, trackPageURL(pageURL, entry.TitleLink))
		track.Album = album.Title
		album.Tracks = append(album.Tracks, track)
	}

	if album.Dropped > 0 {
		slog.Debug("dropped album tracks without a stream url",
			"url", pageURL, "count", album.Dropped)
	}
	return album, nil
}
