package search

import "errors"

// Search errors.
var (
	// ErrTransport is returned when the request could not be completed
	// through the proxy (connect failure, timeout, broken response).
	ErrTransport = errors.New("search request failed")

	// ErrBlocked is returned when the search engine answered with a
	// non-200 status, typically a captcha or rate-limit page.
	ErrBlocked = errors.New("search engine returned non-200 status")

	// ErrParse is returned when the response body is not parseable HTML.
	ErrParse = errors.New("failed to parse search results")
)
