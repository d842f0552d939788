package ports

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResults is returned when a search succeeded but matched nothing.
	ErrNoResults = errors.New("no results")
	// ErrNoClips is returned by Concat when it is given nothing to join.
	ErrNoClips = errors.New("assemble: no clips to concatenate")
)

// SearchError is a non-success answer from the provider's search endpoint.
type SearchError struct {
	Query      string
	StatusCode int
	Body       string
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search %q: status %d: %s", e.Query, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// TransportError is a failed or truncated clip download.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the downloaded file could not be read as video.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
