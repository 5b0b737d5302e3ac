// Package rotate picks proxies and user agents uniformly at random.
//
// Every outbound request in autodork draws a fresh (proxy, user agent)
// pair so that no single exit address or browser signature carries the
// whole workload.
package rotate

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/nao1215/autodork/internal/model"
)

// ErrEmptyPool is returned when picking from an empty proxy set or
// user-agent pool.
var ErrEmptyPool = errors.New("cannot pick from an empty pool")

// Rand is the source of randomness used for rotation and backoff jitter.
// Implementations must be safe for concurrent use.
type Rand interface {
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
}

// globalRand delegates to the math/rand/v2 top-level functions, which are
// safe for concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int    { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// Default returns the process-wide random source.
func Default() Rand {
	return globalRand{}
}

// lockedRand wraps a seeded generator with a mutex.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeded returns a deterministic random source, for tests and for
// reproducing a run.
func NewSeeded(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// PickProxy returns one proxy from the set chosen uniformly at random.
func PickProxy(set *model.WorkingProxySet, rng Rand) (model.ProxyCandidate, error) {
	if set.Len() == 0 {
		return "", ErrEmptyPool
	}
	return set.At(rng.IntN(set.Len())), nil
}

// PickUserAgent returns one user agent from the pool chosen uniformly at random.
func PickUserAgent(pool *model.UserAgentPool, rng Rand) (string, error) {
	if pool.Len() == 0 {
		return "", ErrEmptyPool
	}
	return pool.At(rng.IntN(pool.Len())), nil
}
