// Package model defines the core data structures used throughout autodork.
//
// This package contains the following main types:
//   - ProxyCandidate: A raw proxy address as read from a proxy source
//   - WorkingProxySet: The proxies that passed validation
//   - UserAgentPool: The user-agent strings rotated across requests
//   - DorkQuery: One search query string
//   - DispatchReport: The outcome of dispatching one dork
//   - Run: The state carried through the pipeline for one batch
//   - RunSummary: The aggregate view handed to report writers
//
// Multiple packages (proxy, dispatch, pipeline, report, database) share
// these types, so they live here to avoid import cycles.
package model
