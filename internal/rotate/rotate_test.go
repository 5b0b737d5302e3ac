package rotate

import (
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/autodork/internal/model"
)

func TestPickProxy(t *testing.T) {
	t.Parallel()

	t.Run("empty set returns error", func(t *testing.T) {
		t.Parallel()
		_, err := PickProxy(model.NewWorkingProxySet(nil), Default())
		if !errors.Is(err, ErrEmptyPool) {
			t.Errorf("expected ErrEmptyPool, got %v", err)
		}
	})

	t.Run("nil set returns error", func(t *testing.T) {
		t.Parallel()
		_, err := PickProxy(nil, Default())
		if !errors.Is(err, ErrEmptyPool) {
			t.Errorf("expected ErrEmptyPool, got %v", err)
		}
	})

	t.Run("single element is always chosen", func(t *testing.T) {
		t.Parallel()
		set := model.NewWorkingProxySet([]model.ProxyCandidate{"only:1"})
		for range 20 {
			got, err := PickProxy(set, Default())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "only:1" {
				t.Fatalf("expected only:1, got %s", got)
			}
		}
	})

	t.Run("every element is reachable", func(t *testing.T) {
		t.Parallel()
		set := model.NewWorkingProxySet([]model.ProxyCandidate{"a:1", "b:2", "c:3"})
		rng := NewSeeded(42)
		seen := make(map[model.ProxyCandidate]bool)
		for range 300 {
			got, err := PickProxy(set, rng)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			seen[got] = true
		}
		if len(seen) != 3 {
			t.Errorf("expected all 3 proxies to be picked, got %v", seen)
		}
	})
}

func TestPickUserAgent(t *testing.T) {
	t.Parallel()

	_, err := PickUserAgent(model.NewUserAgentPool(nil), Default())
	if !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}

	pool := model.NewUserAgentPool([]string{"ua1", "ua2"})
	got, err := PickUserAgent(pool, Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ua1" && got != "ua2" {
		t.Errorf("expected a pool member, got %q", got)
	}
}

func TestNewSeeded(t *testing.T) {
	t.Parallel()

	t.Run("same seed gives same sequence", func(t *testing.T) {
		t.Parallel()
		a, b := NewSeeded(7), NewSeeded(7)
		for range 10 {
			if a.IntN(1000) != b.IntN(1000) {
				t.Fatal("expected identical sequences for identical seeds")
			}
		}
	})

	t.Run("Float64 stays in range", func(t *testing.T) {
		t.Parallel()
		r := NewSeeded(1)
		for range 1000 {
			f := r.Float64()
			if f < 0 || f >= 1 {
				t.Fatalf("expected value in [0,1), got %v", f)
			}
		}
	})

	t.Run("safe for concurrent use", func(t *testing.T) {
		t.Parallel()
		r := NewSeeded(3)
		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				for range 100 {
					_ = r.IntN(10)
					_ = r.Float64()
				}
			})
		}
		wg.Wait()
	})
}
