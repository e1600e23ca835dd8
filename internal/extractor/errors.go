package extractor

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all extractor plugins.
var (
	// ErrUnsupportedURL is returned when no plugin recognises a URL.
	ErrUnsupportedURL = errors.New("unsupported url")

	// ErrInvalidArgument is returned for bad input, before any network call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoResults is returned when a search yields no matching candidates.
	ErrNoResults = errors.New("no results")

	// ErrInvalidSong is returned when a stream URL is requested for a track
	// that does not carry one.
	ErrInvalidSong = errors.New("track has no stream url")
)

// FetchError reports a non-success HTTP status from a source.
type FetchError struct {
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed with status %d %s", e.StatusCode, e.Status)
}

// ParseError reports missing or undecodable page data, the primary failure
// mode when a source changes its markup.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return e.Reason
}

// SourceError is the uniform error shape returned by top-level plugin
// operations: it tags the failing plugin and preserves the original error.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// WrapSource tags err with the plugin source name. A nil err stays nil and
// an already tagged error is returned unchanged.
func WrapSource(source string, err error) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{Source: source, Err: err}
}
