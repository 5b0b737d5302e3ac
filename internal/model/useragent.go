package model

// UserAgentPool is the list of user-agent header values rotated across
// requests. It is loaded once per run and never mutated afterwards.
type UserAgentPool struct {
	agents []string
}

// NewUserAgentPool builds a pool from the given strings.
func NewUserAgentPool(agents []string) *UserAgentPool {
	cp := make([]string, len(agents))
	copy(cp, agents)
	return &UserAgentPool{agents: cp}
}

// Len returns the number of user agents. A nil pool has length zero.
func (p *UserAgentPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.agents)
}

// At returns the user agent at index i.
func (p *UserAgentPool) At(i int) string {
	return p.agents[i]
}

// All returns a copy of the user agents in the pool.
func (p *UserAgentPool) All() []string {
	if p == nil {
		return nil
	}
	cp := make([]string, len(p.agents))
	copy(cp, p.agents)
	return cp
}
