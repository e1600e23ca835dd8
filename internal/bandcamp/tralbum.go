package bandcamp

import (
	"encoding/json"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/DisTuneJS/plugins/internal/extractor"
)

// streamQuality is the only quality tier consumed from a track's file map.
const streamQuality = "mp3-128"

// tralbum is the structured record bandcamp embeds in track and album pages
// as entity-encoded JSON inside a data-tralbum attribute.
type tralbum struct {
	Artist         string          `json:"artist"`
	Current        *tralbumCurrent `json:"current"`
	ArtFullsizeURL string          `json:"artFullsizeUrl"`
	ArtThumbURL    string          `json:"artThumbURL"`
	TrackInfo      []tralbumTrack  `json:"trackinfo"`
}

type tralbumCurrent struct {
	Title string `json:"title"`
	ID    int64  `json:"id"`
}

type tralbumTrack struct {
	TrackID   int64             `json:"track_id"`
	Title     string            `json:"title"`
	TitleLink string            `json:"title_link"`
	Duration  float64           `json:"duration"`
	TrackNum  int               `json:"track_num"`
	File      map[string]string `json:"file"`
}

func (t *tralbumTrack) streamURL() string {
	return t.File[streamQuality]
}

// identifier derives a stable track identifier: the numeric track id when
// present, otherwise a slug from the track's page link or title.
func (t *tralbumTrack) identifier() string {
	if t.TrackID != 0 {
		return strconv.FormatInt(t.TrackID, 10)
	}
	if t.TitleLink != "" {
		return path.Base(t.TitleLink)
	}
	return slugify(t.Title)
}

var tralbumAttr = regexp.MustCompile(`data-tralbum="([^"]*)"`)

// entityDecoder reverses the five escapes bandcamp applies when embedding
// the JSON document in an HTML attribute. Decoding runs in a single pass,
// so double-escaped sequences lose exactly one level.
var entityDecoder = strings.NewReplacer(
	"&quot;", `"`,
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&#39;", "'",
)

// extractTralbum locates and decodes the data-tralbum attribute. The value
// is entity-encoded JSON text, so entity decoding must happen before the
// JSON decode.
func extractTralbum(page string) (*tralbum, error) {
	m := tralbumAttr.FindStringSubmatch(page)
	if m == nil {
		return nil, &extractor.ParseError{Reason: "track/album data not found"}
	}

	raw := entityDecoder.Replace(m[1])

	var rec tralbum
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &extractor.ParseError{Reason: "track/album data is not valid json: " + err.Error()}
	}
	return &rec, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
