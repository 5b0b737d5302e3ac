// Package proxy supplies and validates the HTTP and SOCKS5 proxies that
// autodork routes its search traffic through.
//
// A Source produces raw candidates, either from a local list file, a
// remote proxy-list provider, or a cache that sits in front of the
// remote provider. A Validator then probes every candidate concurrently
// against a known-good endpoint and keeps only those that answer with
// HTTP 200 in time.
//
// Candidates may be bare "host:port" (HTTP proxy) or carry an explicit
// scheme: "http://", "https://", "socks5://" or "socks5h://".
package proxy
