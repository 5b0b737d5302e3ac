// Package dispatch runs one dork to completion: it picks a random proxy
// and user agent, queries the search engine, and on failure backs off
// and retries through a fresh pair until the retry budget is spent.
//
// A dork ends in exactly one of these states:
//   - found: results were written to the results directory
//   - empty: the engine answered with no results (not retried)
//   - exhausted: MaxRetries+1 attempts all failed
//   - cancelled: the context ended before a terminal state
//   - failed: results were found but could not be written
package dispatch
