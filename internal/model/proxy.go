package model

import "strings"

// ProxyCandidate is a proxy address as read from a proxy source.
// The value is kept verbatim; it may be "host:port" or a full URL such as
// "socks5://host:port". It is not validated here.
type ProxyCandidate string

// String returns the candidate as a string.
func (p ProxyCandidate) String() string {
	return string(p)
}

// IsEmpty reports whether the candidate is blank after trimming whitespace.
func (p ProxyCandidate) IsEmpty() bool {
	return strings.TrimSpace(string(p)) == ""
}

// CandidatesFromLines converts raw lines into proxy candidates, preserving
// order and duplicates.
func CandidatesFromLines(lines []string) []ProxyCandidate {
	out := make([]ProxyCandidate, len(lines))
	for i, l := range lines {
		out[i] = ProxyCandidate(l)
	}
	return out
}

// WorkingProxySet holds the candidates that succeeded a probe.
// The set is read-only once built and safe for concurrent readers.
type WorkingProxySet struct {
	proxies []ProxyCandidate
}

// NewWorkingProxySet builds a set from the given proxies.
// The slice is copied so later changes by the caller do not leak in.
func NewWorkingProxySet(proxies []ProxyCandidate) *WorkingProxySet {
	cp := make([]ProxyCandidate, len(proxies))
	copy(cp, proxies)
	return &WorkingProxySet{proxies: cp}
}

// Len returns the number of working proxies. A nil set has length zero.
func (s *WorkingProxySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.proxies)
}

// At returns the proxy at index i.
func (s *WorkingProxySet) At(i int) ProxyCandidate {
	return s.proxies[i]
}

// All returns a copy of the proxies in the set.
func (s *WorkingProxySet) All() []ProxyCandidate {
	if s == nil {
		return nil
	}
	cp := make([]ProxyCandidate, len(s.proxies))
	copy(cp, s.proxies)
	return cp
}
