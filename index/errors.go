package index

import "errors"

var (
	// ErrCursorExpired indicates the point-in-time snapshot backing a
	// cursor is no longer valid. The run must be restarted from the
	// last durably persisted page position.
	ErrCursorExpired = errors.New("point-in-time cursor expired")

	// ErrExtractionFailed indicates a page could not be read after
	// bounded retries. The run fails rather than skip the page.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrInvalidCursor indicates a persisted cursor position could not
	// be decoded.
	ErrInvalidCursor = errors.New("invalid cursor position")
)
