package model

// DorkQuery is one search query string, typically using advanced search
// operators such as site:, inurl: or filetype:.
type DorkQuery string

// String returns the dork as a string.
func (d DorkQuery) String() string {
	return string(d)
}

// DorksFromLines converts lines into dork queries, preserving order.
func DorksFromLines(lines []string) []DorkQuery {
	out := make([]DorkQuery, len(lines))
	for i, l := range lines {
		out[i] = DorkQuery(l)
	}
	return out
}
