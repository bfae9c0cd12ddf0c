package types

import "errors"

// Sentinel errors shared across the crawl pipeline.
var (
	// ErrElementNotFound is the expected outcome of an optional
	// lookup; fatal only when the caller requires a match.
	ErrElementNotFound = errors.New("element not found")

	// ErrPageLoadTimeout marks a page that never signalled completion.
	// Retried a bounded number of times at the deep-extraction stage.
	ErrPageLoadTimeout = errors.New("page load timed out")

	// ErrScopeResolution marks a scope whose ownership chain never
	// reached a browser session. A programming defect, fatal where it
	// occurs.
	ErrScopeResolution = errors.New("owning session not found")
)
