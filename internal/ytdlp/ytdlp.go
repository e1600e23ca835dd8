// Package ytdlp resolves URLs through the yt-dlp command line tool. The
// tool's JSON dump is consumed as an opaque structured result: only the
// fields needed to build domain records are decoded.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"

	"github.com/DisTuneJS/plugins/config"
	"github.com/DisTuneJS/plugins/internal/domain"
	"github.com/DisTuneJS/plugins/internal/extractor"
)

// SourceName tags every entity and error produced by this plugin.
const SourceName = "yt-dlp"

// ErrNotAvailable is returned when the configured binary cannot be invoked.
var ErrNotAvailable = errors.New("yt-dlp not available")

// runner abstracts process invocation so tests can fake the tool.
type runner interface {
	run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Extractor hands URLs to yt-dlp and maps its metadata dump onto domain
// records. It never downloads media.
type Extractor struct {
	binary string
	runner runner
}

func New(cfg *config.Config) *Extractor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Extractor{
		binary: cfg.YtDlp.Binary,
		runner: execRunner{},
	}
}

func (e *Extractor) Source() string { return SourceName }

// CanResolve accepts any absolute http(s) URL; yt-dlp itself decides
// whether the site is supported when Resolve runs.
func (e *Extractor) CanResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Available reports whether the configured binary can be invoked.
func (e *Extractor) Available(ctx context.Context) error {
	if _, err := e.runner.run(ctx, e.binary, "--version"); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	return nil
}

// dumpInfo is the subset of yt-dlp's JSON dump this plugin consumes.
type dumpInfo struct {
	Type        string     `json:"_type"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Uploader    string     `json:"uploader"`
	UploaderURL string     `json:"uploader_url"`
	WebpageURL  string     `json:"webpage_url"`
	Thumbnail   string     `json:"thumbnail"`
	Duration    float64    `json:"duration"`
	URL         string     `json:"url"`
	Entries     []dumpInfo `json:"entries"`
}

// Resolve invokes yt-dlp for its metadata dump and maps the result. Single
// videos become tracks, playlist dumps become albums.
func (e *Extractor) Resolve(ctx context.Context, rawURL string) (*extractor.Result, error) {
	if !e.CanResolve(rawURL) {
		return nil, extractor.WrapSource(SourceName,
			fmt.Errorf("%w: %s", extractor.ErrUnsupportedURL, rawURL))
	}

	slog.Debug("resolving with yt-dlp", "url", rawURL, "binary", e.binary)

	out, err := e.runner.run(ctx, e.binary,
		"--dump-single-json", "--no-warnings", "--skip-download", rawURL)
	if err != nil {
		return nil, extractor.WrapSource(SourceName, err)
	}

	var info dumpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, extractor.WrapSource(SourceName,
			&extractor.ParseError{Reason: "invalid yt-dlp output: " + err.Error()})
	}

	if info.Type == "playlist" {
		return &extractor.Result{Album: buildAlbum(&info)}, nil
	}

	track := buildTrack(&info)
	if track.StreamURL == "" {
		return nil, extractor.WrapSource(SourceName,
			&extractor.ParseError{Reason: "stream URL not found"})
	}
	return &extractor.Result{Track: track}, nil
}

func buildTrack(info *dumpInfo) *domain.Track {
	return &domain.Track{
		Source:       SourceName,
		ID:           info.ID,
		Title:        info.Title,
		Artist:       info.Uploader,
		ArtistURL:    info.UploaderURL,
		Duration:     info.Duration,
		URL:          info.WebpageURL,
		ThumbnailURL: info.Thumbnail,
		StreamURL:    info.URL,
	}
}

func buildAlbum(info *dumpInfo) *domain.Album {
	album := &domain.Album{
		Source:       SourceName,
		ID:           info.ID,
		Title:        info.Title,
		Artist:       info.Uploader,
		ArtistURL:    info.UploaderURL,
		URL:          info.WebpageURL,
		ThumbnailURL: info.Thumbnail,
	}

	for i, entry := range info.Entries {
		if entry.URL == "" {
			album.Dropped++
			continue
		}
		track := buildTrack(&entry)
		track.TrackNumber = i + 1
		track.Album = album.Title
		album.Tracks = append(album.Tracks, track)
	}
	return album
}
