package model

import "testing"

func TestProxyCandidate_IsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate ProxyCandidate
		want      bool
	}{
		{name: "empty string", candidate: "", want: true},
		{name: "whitespace only", candidate: " \t", want: true},
		{name: "host and port", candidate: "1.2.3.4:8080", want: false},
		{name: "socks5 url", candidate: "socks5://1.2.3.4:1080", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.candidate.IsEmpty(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCandidatesFromLines(t *testing.T) {
	t.Parallel()

	got := CandidatesFromLines([]string{"a:1", "a:1", ""})
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0] != "a:1" || got[1] != "a:1" || got[2] != "" {
		t.Errorf("expected order and duplicates preserved, got %v", got)
	}
}

func TestWorkingProxySet(t *testing.T) {
	t.Parallel()

	t.Run("copies input", func(t *testing.T) {
		t.Parallel()
		in := []ProxyCandidate{"a:1", "b:2"}
		set := NewWorkingProxySet(in)
		in[0] = "changed:1"

		if set.At(0) != "a:1" {
			t.Errorf("expected a:1, got %s", set.At(0))
		}
		if set.Len() != 2 {
			t.Errorf("expected length 2, got %d", set.Len())
		}
	})

	t.Run("All returns a copy", func(t *testing.T) {
		t.Parallel()
		set := NewWorkingProxySet([]ProxyCandidate{"a:1"})
		all := set.All()
		all[0] = "changed:1"
		if set.At(0) != "a:1" {
			t.Errorf("expected set to be unaffected, got %s", set.At(0))
		}
	})

	t.Run("nil set", func(t *testing.T) {
		t.Parallel()
		var set *WorkingProxySet
		if set.Len() != 0 {
			t.Errorf("expected 0, got %d", set.Len())
		}
		if set.All() != nil {
			t.Error("expected nil slice")
		}
	})
}

func TestUserAgentPool(t *testing.T) {
	t.Parallel()

	pool := NewUserAgentPool([]string{"ua1", "ua2"})
	if pool.Len() != 2 {
		t.Fatalf("expected 2, got %d", pool.Len())
	}
	if pool.At(1) != "ua2" {
		t.Errorf("expected ua2, got %s", pool.At(1))
	}

	var nilPool *UserAgentPool
	if nilPool.Len() != 0 {
		t.Errorf("expected nil pool length 0, got %d", nilPool.Len())
	}
}
