// Package search performs one search-engine query through a proxy and
// extracts the result links from the returned HTML.
//
// Result extraction is a best-effort CSS selector match; there is no
// schema versioning of the result markup. When the engine answers with
// anything other than HTTP 200 (captcha pages, rate limiting) the query
// fails with ErrBlocked so callers can retry through another proxy.
package search
