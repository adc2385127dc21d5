package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout       = errors.New("request timed out")
	ErrEmptyResponse = errors.New("empty response body")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrNoArticles    = errors.New("no articles available")
	ErrAIDisabled    = errors.New("AI features are disabled (missing API key)")
)

// FetchError wraps errors that occur while fetching a source page.
// StatusCode is zero for pure network failures, letting callers
// distinguish "could not connect" from "server said no".
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur while parsing source markup or
// model output.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
