// Package directlink handles arbitrary direct audio URLs: the link is
// validated with an HTTP HEAD request, probed with a media inspection tool
// for duration and tags, and passed through as its own stream URL.
package directlink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"path"
	"strconv"
	"strings"

	"github.com/DisTuneJS/plugins/config"
	"github.com/DisTuneJS/plugins/internal/domain"
	"github.com/DisTuneJS/plugins/internal/extractor"
)

// SourceName tags every entity and error produced by this plugin.
const SourceName = "direct-link"

var audioExtensions = map[string]bool{
	".aac":  true,
	".flac": true,
	".m4a":  true,
	".mp3":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
}

// prober abstracts the media inspection tool so tests can fake it.
type prober interface {
	probe(ctx context.Context, target string) (*probeResult, error)
}

// probeResult is the subset of ffprobe's -show_format JSON output this
// plugin consumes.
type probeResult struct {
	Format struct {
		FormatName string            `json:"format_name"`
		Duration   string            `json:"duration"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) probe(ctx context.Context, target string) (*probeResult, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet", "-print_format", "json", "-show_format", target)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", p.binary, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", p.binary, err)
	}

	var res probeResult
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, fmt.Errorf("failed to decode probe output: %w", err)
	}
	return &res, nil
}

// Extractor validates and probes direct media links.
type Extractor struct {
	client    *http.Client
	prober    prober
	userAgent string
}

func New(cfg *config.Config) *Extractor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Extractor{
		client:    &http.Client{},
		prober:    ffprobeProber{binary: cfg.Probe.Binary},
		userAgent: cfg.UserAgent,
	}
}

func (e *Extractor) Source() string { return SourceName }

// CanResolve accepts absolute http(s) URLs whose path ends in a known audio
// extension; everything else is left to the other plugins.
func (e *Extractor) CanResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return audioExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Resolve validates the link and probes it for metadata. The resulting
// track streams from the input URL itself.
func (e *Extractor) Resolve(ctx context.Context, rawURL string) (*extractor.Result, error) {
	if !e.CanResolve(rawURL) {
		return nil, extractor.WrapSource(SourceName,
			fmt.Errorf("%w: %s", extractor.ErrUnsupportedURL, rawURL))
	}

	if err := e.validate(ctx, rawURL); err != nil {
		return nil, extractor.WrapSource(SourceName, err)
	}

	probed, err := e.prober.probe(ctx, rawURL)
	if err != nil {
		return nil, extractor.WrapSource(SourceName, err)
	}

	track := &domain.Track{
		Source:    SourceName,
		ID:        slugFromURL(rawURL),
		Title:     titleFromURL(rawURL),
		URL:       rawURL,
		StreamURL: rawURL,
	}
	if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		track.Duration = d
	}
	if title := probed.Format.Tags["title"]; title != "" {
		track.Title = title
	}
	if artist := probed.Format.Tags["artist"]; artist != "" {
		track.Artist = artist
	}

	return &extractor.Result{Track: track}, nil
}

// validate issues a single HEAD request and checks status and content type.
func (e *Extractor) validate(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create validation request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to validate link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &extractor.FetchError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !isAudioContentType(ct) {
		return &extractor.ParseError{Reason: "not an audio stream: " + ct}
	}
	return nil
}

func isAudioContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.HasPrefix(ct, "audio/") ||
		strings.HasPrefix(ct, "application/ogg") ||
		strings.HasPrefix(ct, "application/octet-stream")
}

func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	base := path.Base(u.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

func slugFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host + u.Path
}
